// Package dictionary provides access to the pronunciation dictionary. Two
// interchangeable backends are available: a SQLite structured store and a
// JSON flat map held in memory. A Gateway opens each backend once and hands
// it out to every caller.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"codeberg.org/snonux/engipa/internal/phoneme"
)

// ErrUnknownBackend is returned for backend identifiers other than sql and json
var ErrUnknownBackend = errors.New("unknown dictionary backend")

// Kind identifies a backend implementation
type Kind string

const (
	// KindSQL is the SQLite structured store
	KindSQL Kind = "sql"
	// KindJSON is the in-memory flat map loaded from a JSON file
	KindJSON Kind = "json"
)

// ParseKind validates a backend identifier
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSQL, KindJSON:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// IPAMatch is a dictionary word together with one of its IPA renderings
type IPAMatch struct {
	Word string `json:"word"`
	IPA  string `json:"ipa"`
}

// Backend defines the lookup capability shared by all dictionary stores
type Backend interface {
	// LookupMany returns the pronunciation variants of every known key in
	// dictionary order. Unknown keys are absent from the result.
	LookupMany(ctx context.Context, keys []string) (map[string][]phoneme.Entry, error)

	// SuffixSearch returns the sorted keys owning a variant that ends with
	// suffix, skipping excludeKey and variants equal to excludeFull.
	SuffixSearch(ctx context.Context, suffix phoneme.Entry, excludeKey, excludeFull string) ([]string, error)

	// ContainsIPA returns the entries whose IPA form, stress marks removed,
	// contains fragment. Results are sorted by word, then IPA.
	ContainsIPA(ctx context.Context, fragment string) ([]IPAMatch, error)

	// Name returns the backend name
	Name() string

	// Close releases the backend resources
	Close() error
}

// LookupOne is LookupMany for a single key
func LookupOne(ctx context.Context, b Backend, key string) ([]phoneme.Entry, error) {
	found, err := b.LookupMany(ctx, []string{key})
	if err != nil {
		return nil, err
	}
	return found[key], nil
}

// distinct returns the unique non-empty keys in first-seen order
func distinct(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// endsWith reports whether phonemes ends with suffix on a phoneme boundary
func endsWith(phonemes, suffix string) bool {
	return phonemes == suffix || strings.HasSuffix(phonemes, " "+suffix)
}

func sortMatches(matches []IPAMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Word != matches[j].Word {
			return matches[i].Word < matches[j].Word
		}
		return matches[i].IPA < matches[j].IPA
	})
}
