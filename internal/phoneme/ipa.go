package phoneme

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// PrimaryMark precedes a phone carrying primary stress
	PrimaryMark = "ˈ"
	// SecondaryMark precedes a phone carrying secondary stress
	SecondaryMark = "ˌ"
	// UnresolvedMarker flags words the dictionary does not know
	UnresolvedMarker = "*"
)

// ErrUnknownStressMode is returned by ParseStressMode for unsupported names
var ErrUnknownStressMode = errors.New("unknown stress marking mode")

// StressMode selects which stress digits become IPA stress marks
type StressMode int

const (
	StressAll StressMode = iota
	StressPrimary
	StressNone
)

// ParseStressMode maps a configuration value onto a StressMode.
// "both" is accepted as an alias of "all"; "false" and "off" of "none".
func ParseStressMode(s string) (StressMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "both":
		return StressAll, nil
	case "primary":
		return StressPrimary, nil
	case "none", "false", "off":
		return StressNone, nil
	default:
		return StressAll, fmt.Errorf("%w: %q", ErrUnknownStressMode, s)
	}
}

// String returns the canonical name of the mode
func (m StressMode) String() string {
	switch m {
	case StressPrimary:
		return "primary"
	case StressNone:
		return "none"
	default:
		return "all"
	}
}

// Enabled reports whether the mode emits any stress marks
func (m StressMode) Enabled() bool {
	return m != StressNone
}

// mark returns the stress mark to put in front of a phone with stress s
func (m StressMode) mark(s Stress) string {
	switch {
	case s == Primary && m != StressNone:
		return PrimaryMark
	case s == Secondary && m == StressAll:
		return SecondaryMark
	default:
		return ""
	}
}

// symbols maps lower-case ARPABET codes to IPA. Codes missing here pass
// through unchanged.
var symbols = map[string]string{
	"a":  "ə",
	"aa": "ɑ",
	"ae": "æ",
	"ah": "ə",
	"ao": "ɔ",
	"aw": "aʊ",
	"ay": "aɪ",
	"ch": "ʧ",
	"dh": "ð",
	"eh": "ɛ",
	"er": "ər",
	"ey": "eɪ",
	"hh": "h",
	"ih": "ɪ",
	"iy": "i",
	"jh": "ʤ",
	"ng": "ŋ",
	"ow": "oʊ",
	"oy": "ɔɪ",
	"sh": "ʃ",
	"th": "θ",
	"uh": "ʊ",
	"uw": "u",
	"y":  "j",
	"zh": "ʒ",
}

// rewrites move the primary mark inside clusters where it reads badly.
// A rewrite is skipped when the string starts with its target.
var rewrites = [][2]string{
	{PrimaryMark + "ər", "ə" + PrimaryMark + "r"},
	{PrimaryMark + "ie", "i" + PrimaryMark + "e"},
}

// Symbol returns the IPA symbol for an ARPABET code without stress digit
func Symbol(code string) (string, bool) {
	s, ok := symbols[code]
	return s, ok
}

// ToIPA renders one pronunciation entry as an IPA string
func ToIPA(e Entry, mode StressMode) string {
	var b strings.Builder
	for _, p := range e {
		b.WriteString(mode.mark(p.Stress))
		if s, ok := symbols[p.Symbol]; ok {
			b.WriteString(s)
		} else {
			b.WriteString(p.Symbol)
		}
	}

	ipa := b.String()
	for _, rw := range rewrites {
		if !strings.HasPrefix(ipa, rw[0]) {
			ipa = strings.ReplaceAll(ipa, rw[0], rw[1])
		}
	}
	return ipa
}

// Unresolved renders a word the dictionary does not know. The text is kept
// as is; when marks are enabled and the text is not purely numeric the
// UnresolvedMarker is appended.
func Unresolved(text string, mode StressMode) string {
	if mode.Enabled() && strings.IndexFunc(text, isNotDigit) >= 0 {
		return text + UnresolvedMarker
	}
	return text
}

// RemoveMarks drops the stress marks that mode does not emit from an
// already rendered IPA string.
func RemoveMarks(ipa string, mode StressMode) string {
	switch mode {
	case StressPrimary:
		return strings.ReplaceAll(ipa, SecondaryMark, "")
	case StressNone:
		return StripMarks(ipa)
	default:
		return ipa
	}
}

var markStripper = strings.NewReplacer(PrimaryMark, "", SecondaryMark, "")

// StripMarks removes every stress mark from an IPA string
func StripMarks(ipa string) string {
	return markStripper.Replace(ipa)
}

func isNotDigit(r rune) bool {
	return r < '0' || r > '9'
}
