// Package phoneme parses ARPABET pronunciation entries and renders them as
// IPA strings. It owns the ARPABET to IPA symbol table, the stress-marking
// policies and the handling of words the dictionary could not resolve.
package phoneme
