package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"codeberg.org/snonux/engipa/internal/phoneme"
)

// FlatMap is the flat-map backend: word -> phoneme strings, loaded
// wholesale from a JSON file on first use
type FlatMap struct {
	path   string
	logger *slog.Logger

	once    sync.Once
	entries map[string][]string
	loadErr error
}

// NewFlatMap creates a flat-map backend reading path lazily
func NewFlatMap(path string, logger *slog.Logger) *FlatMap {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlatMap{path: path, logger: logger}
}

// NewFlatMapFromEntries creates a flat-map backend over an in-memory map
func NewFlatMapFromEntries(entries map[string][]string) *FlatMap {
	f := &FlatMap{logger: slog.Default(), entries: entries}
	f.once.Do(func() {})
	return f
}

func (f *FlatMap) load() error {
	f.once.Do(func() {
		data, err := os.ReadFile(f.path)
		if err != nil {
			f.loadErr = fmt.Errorf("failed to read dictionary file: %w", err)
			return
		}
		var entries map[string][]string
		if err := json.Unmarshal(data, &entries); err != nil {
			f.loadErr = fmt.Errorf("failed to parse dictionary file: %w", err)
			return
		}
		f.entries = entries
		f.logger.Info("loaded dictionary file", "path", f.path, "words", len(entries))
	})
	return f.loadErr
}

// LookupMany returns the variants of every key present in the map
func (f *FlatMap) LookupMany(ctx context.Context, keys []string) (map[string][]phoneme.Entry, error) {
	if err := f.load(); err != nil {
		return nil, err
	}

	result := make(map[string][]phoneme.Entry)
	for _, key := range distinct(keys) {
		variants, ok := f.entries[key]
		if !ok || len(variants) == 0 {
			continue
		}
		parsed := make([]phoneme.Entry, len(variants))
		for i, v := range variants {
			parsed[i] = phoneme.Parse(v)
		}
		result[key] = parsed
	}

	f.logger.Debug("dictionary lookup", "backend", f.Name(), "keys", len(keys), "found", len(result))
	return result, nil
}

// SuffixSearch scans every variant for the suffix
func (f *FlatMap) SuffixSearch(ctx context.Context, suffix phoneme.Entry, excludeKey, excludeFull string) ([]string, error) {
	if err := f.load(); err != nil {
		return nil, err
	}

	tail := suffix.String()
	var words []string
	for key, variants := range f.entries {
		if key == excludeKey {
			continue
		}
		for _, v := range variants {
			v = normalizePhonemes(v)
			if v != excludeFull && endsWith(v, tail) {
				words = append(words, key)
				break
			}
		}
	}

	sort.Strings(words)
	return words, nil
}

// ContainsIPA renders every variant with full stress marking and matches
// the fragment against the unmarked form
func (f *FlatMap) ContainsIPA(ctx context.Context, fragment string) ([]IPAMatch, error) {
	if err := f.load(); err != nil {
		return nil, err
	}

	fragment = phoneme.StripMarks(fragment)
	if fragment == "" {
		return nil, nil
	}

	seen := make(map[IPAMatch]struct{})
	var matches []IPAMatch
	for key, variants := range f.entries {
		for _, v := range variants {
			ipa := phoneme.ToIPA(phoneme.Parse(v), phoneme.StressAll)
			if !strings.Contains(phoneme.StripMarks(ipa), fragment) {
				continue
			}
			m := IPAMatch{Word: key, IPA: ipa}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			matches = append(matches, m)
		}
	}

	sortMatches(matches)
	return matches, nil
}

// Name returns the backend name
func (f *FlatMap) Name() string {
	return string(KindJSON)
}

// Close is a no-op, the map is garbage collected with the backend
func (f *FlatMap) Close() error {
	return nil
}

// normalizePhonemes brings a stored phoneme string into the canonical
// lower-case, single-spaced form used for comparisons
func normalizePhonemes(s string) string {
	return phoneme.Parse(s).String()
}
