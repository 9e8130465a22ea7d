package transcribe

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxCombinations bounds the number of sentences Combinations will build
const MaxCombinations = 1 << 20

var (
	// ErrEmptyVariants means a word reached the expander without variants
	ErrEmptyVariants = errors.New("word has no transcription variants")
	// ErrTooManyCombinations is returned when the product of variant
	// counts exceeds MaxCombinations
	ErrTooManyCombinations = errors.New("too many transcription combinations")
)

// Combinations returns every sentence built by picking one variant per
// word, sorted lexicographically. Rows are enumerated with a mixed-radix
// counter whose last digit turns fastest.
func Combinations(words [][]string) ([]string, error) {
	if len(words) == 0 {
		return nil, nil
	}

	total := 1
	for i, variants := range words {
		if len(variants) == 0 {
			return nil, fmt.Errorf("%w: word %d", ErrEmptyVariants, i)
		}
		if total > MaxCombinations/len(variants) {
			return nil, fmt.Errorf("%w: more than %d", ErrTooManyCombinations, MaxCombinations)
		}
		total *= len(variants)
	}

	digits := make([]int, len(words))
	parts := make([]string, len(words))
	out := make([]string, 0, total)
	for row := 0; row < total; row++ {
		for i, d := range digits {
			parts[i] = words[i][d]
		}
		out = append(out, strings.Join(parts, " "))

		for i := len(digits) - 1; i >= 0; i-- {
			digits[i]++
			if digits[i] < len(words[i]) {
				break
			}
			digits[i] = 0
		}
	}

	sort.Strings(out)
	return out, nil
}

// Best joins the last-listed variant of every word
func Best(words [][]string) (string, error) {
	parts := make([]string, len(words))
	for i, variants := range words {
		if len(variants) == 0 {
			return "", fmt.Errorf("%w: word %d", ErrEmptyVariants, i)
		}
		parts[i] = variants[len(variants)-1]
	}
	return strings.Join(parts, " "), nil
}
