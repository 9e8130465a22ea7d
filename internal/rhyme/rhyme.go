// Package rhyme finds dictionary words that rhyme with a given word. Two
// words rhyme when the phonemes from the first primary-stressed vowel to
// the end of their first pronunciation are the same.
package rhyme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/thoas/go-funk"

	"codeberg.org/snonux/engipa/internal/dictionary"
	"codeberg.org/snonux/engipa/internal/phoneme"
	"codeberg.org/snonux/engipa/internal/preprocess"
)

var (
	// ErrUnknownWord is returned when the word has no dictionary entry
	ErrUnknownWord = errors.New("word not in dictionary")
	// ErrNoPrimaryStress is returned when the first pronunciation of a word
	// has no primary-stressed phoneme to start the rhyme from
	ErrNoPrimaryStress = errors.New("pronunciation has no primary stress")
)

// Matcher runs rhyme queries against a dictionary gateway
type Matcher struct {
	gateway *dictionary.Gateway
	logger  *slog.Logger
}

// New creates a matcher
func New(gw *dictionary.Gateway, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{gateway: gw, logger: logger}
}

// SuffixFrom returns the phones of e starting at the first one with
// primary stress
func SuffixFrom(e phoneme.Entry) (phoneme.Entry, error) {
	i := e.PrimaryIndex()
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryStress, e)
	}
	return e[i:], nil
}

// Suffix returns the rhyme suffix of word's first pronunciation
func (m *Matcher) Suffix(ctx context.Context, word string, kind dictionary.Kind) (phoneme.Entry, error) {
	_, first, err := m.firstEntry(ctx, word, kind)
	if err != nil {
		return nil, err
	}
	return SuffixFrom(first)
}

// Find returns the sorted words rhyming with word. The word itself and
// homophones of its first pronunciation are never included.
func (m *Matcher) Find(ctx context.Context, word string, kind dictionary.Kind) ([]string, error) {
	backend, err := m.gateway.Backend(ctx, kind)
	if err != nil {
		return nil, err
	}
	key, first, err := m.firstEntry(ctx, word, kind)
	if err != nil {
		return nil, err
	}
	suffix, err := SuffixFrom(first)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}

	words, err := backend.SuffixSearch(ctx, suffix, key, first.String())
	if err != nil {
		return nil, fmt.Errorf("failed to search rhymes: %w", err)
	}
	sort.Strings(words)
	words = funk.UniqString(words)
	if words == nil {
		words = []string{}
	}

	m.logger.Debug("found rhymes", "word", key, "suffix", suffix.String(), "count", len(words), "backend", kind)
	return words, nil
}

// FindEach finds rhymes for every whitespace-separated word of text and
// returns one list per word
func (m *Matcher) FindEach(ctx context.Context, text string, kind dictionary.Kind) ([][]string, error) {
	keys := preprocess.Keys(text)
	out := make([][]string, 0, len(keys))
	for _, k := range keys {
		words, err := m.Find(ctx, k, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, words)
	}
	return out, nil
}

// FindFlat is Find against the flat map backend
func (m *Matcher) FindFlat(ctx context.Context, word string) ([]string, error) {
	return m.Find(ctx, word, dictionary.KindJSON)
}

func (m *Matcher) firstEntry(ctx context.Context, word string, kind dictionary.Kind) (string, phoneme.Entry, error) {
	key := preprocess.Normalize(word)
	if key == "" {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownWord, word)
	}

	backend, err := m.gateway.Backend(ctx, kind)
	if err != nil {
		return "", nil, err
	}
	entries, err := dictionary.LookupOne(ctx, backend, key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up %q: %w", key, err)
	}
	if len(entries) == 0 {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownWord, key)
	}
	return key, entries[0], nil
}
