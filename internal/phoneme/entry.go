package phoneme

import (
	"strings"
)

// Stress is the stress digit carried by an ARPABET vowel
type Stress int

const (
	Unstressed Stress = 0
	Primary    Stress = 1
	Secondary  Stress = 2
)

// Phone is a single ARPABET code split from its stress digit
type Phone struct {
	Symbol   string // lower-case code without the stress digit
	Stress   Stress
	HasDigit bool // whether the code carried a stress digit at all
}

// Entry is one pronunciation variant of a dictionary word
type Entry []Phone

// ParsePhone splits a code such as "AH0" into its symbol and stress digit.
// Only 0, 1 and 2 count as stress digits. Codes made only of digits are
// kept verbatim and never carry stress.
func ParsePhone(code string) Phone {
	code = strings.ToLower(code)
	n := len(code)
	if n < 2 {
		return Phone{Symbol: code}
	}
	last := code[n-1]
	if last < '0' || last > '2' || isDigits(code) {
		return Phone{Symbol: code}
	}

	p := Phone{Symbol: code[:n-1], HasDigit: true}
	switch last {
	case '1':
		p.Stress = Primary
	case '2':
		p.Stress = Secondary
	}
	return p
}

// Parse reads a space-separated phoneme string such as "hh ah0 l ow1"
func Parse(s string) Entry {
	fields := strings.Fields(s)
	entry := make(Entry, 0, len(fields))
	for _, f := range fields {
		entry = append(entry, ParsePhone(f))
	}
	return entry
}

// Code renders the phone back into its ARPABET form
func (p Phone) Code() string {
	if !p.HasDigit {
		return p.Symbol
	}
	return p.Symbol + string(rune('0'+p.Stress))
}

// String renders the entry as a space-joined phoneme string
func (e Entry) String() string {
	codes := make([]string, len(e))
	for i, p := range e {
		codes[i] = p.Code()
	}
	return strings.Join(codes, " ")
}

// PrimaryIndex returns the position of the first primary-stressed phone, or -1
func (e Entry) PrimaryIndex() int {
	for i, p := range e {
		if p.Stress == Primary {
			return i
		}
	}
	return -1
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
