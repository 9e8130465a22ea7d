package transcribe

import (
	"github.com/thoas/go-funk"

	"codeberg.org/snonux/engipa/internal/phoneme"
)

// Resolution is the outcome of looking up one input word
type Resolution interface {
	// Render turns the resolution into its IPA variants
	Render(mode phoneme.StressMode) []string
}

// Resolved holds the dictionary variants of a known word
type Resolved struct {
	Entries []phoneme.Entry
}

// Unresolved holds the text of a word missing from the dictionary
type Unresolved struct {
	Text string
}

// Render maps every entry to IPA and drops repeated strings
func (r Resolved) Render(mode phoneme.StressMode) []string {
	ipa := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		ipa[i] = phoneme.ToIPA(e, mode)
	}
	return Dedup(ipa)
}

// Render returns the original text, flagged when marks are enabled
func (u Unresolved) Render(mode phoneme.StressMode) []string {
	return []string{phoneme.Unresolved(u.Text, mode)}
}

// resolveAll pairs every key with its lookup result, in the caller's
// order. Each unknown key gets its own Unresolved value.
func resolveAll(keys []string, found map[string][]phoneme.Entry) []Resolution {
	out := make([]Resolution, len(keys))
	for i, key := range keys {
		if entries := found[key]; len(entries) > 0 {
			out[i] = Resolved{Entries: entries}
		} else {
			out[i] = Unresolved{Text: key}
		}
	}
	return out
}

// Dedup removes repeated variants keeping first occurrences in order
func Dedup(variants []string) []string {
	return funk.UniqString(variants)
}
