// Package transcribe converts English text to IPA. It resolves every word
// against the dictionary, renders and deduplicates the variants, restores
// punctuation and either picks the best sentence or expands all of them.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"codeberg.org/snonux/engipa/internal/dictionary"
	"codeberg.org/snonux/engipa/internal/phoneme"
	"codeberg.org/snonux/engipa/internal/preprocess"
)

// Options controls a transcription call
type Options struct {
	// Custom overrides the dictionary for the given words
	Custom map[string][]string
	// KeepPunct re-wraps every variant in its token's punctuation
	KeepPunct bool
	// Stress selects the stress-marking policy
	Stress phoneme.StressMode
	// Backend selects the dictionary backend
	Backend dictionary.Kind
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		KeepPunct: true,
		Stress:    phoneme.StressAll,
		Backend:   dictionary.KindSQL,
	}
}

// WordTranscription is the list of IPA variants of one input word
type WordTranscription struct {
	Word     string   `json:"word"`
	Variants []string `json:"variants"`
}

// Transcriber runs transcriptions against a dictionary gateway
type Transcriber struct {
	gateway *dictionary.Gateway
	logger  *slog.Logger
}

// New creates a transcriber using gw for all lookups
func New(gw *dictionary.Gateway, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{gateway: gw, logger: logger}
}

// Words transcribes every whitespace-separated word of text. The result
// has one entry per input word and every entry has at least one variant.
func (t *Transcriber) Words(ctx context.Context, text string, opts Options) ([]WordTranscription, error) {
	tokens := preprocess.Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	custom := normalizeCustom(opts.Custom)
	keys := make([]string, len(tokens))
	var lookup []string
	for i, tok := range tokens {
		keys[i] = tok.Core
		if _, ok := custom[tok.Core]; !ok {
			lookup = append(lookup, tok.Core)
		}
	}

	found := map[string][]phoneme.Entry{}
	if len(lookup) > 0 {
		backend, err := t.gateway.Backend(ctx, opts.Backend)
		if err != nil {
			return nil, err
		}
		found, err = backend.LookupMany(ctx, lookup)
		if err != nil {
			return nil, fmt.Errorf("failed to look up words: %w", err)
		}
	}

	resolutions := resolveAll(keys, found)
	words := make([]WordTranscription, len(tokens))
	for i, tok := range tokens {
		var variants []string
		if override, ok := custom[tok.Core]; ok {
			variants = make([]string, len(override))
			for j, v := range override {
				variants[j] = phoneme.RemoveMarks(v, opts.Stress)
			}
			variants = Dedup(variants)
		} else {
			variants = resolutions[i].Render(opts.Stress)
		}

		if opts.KeepPunct {
			for j, v := range variants {
				variants[j] = tok.Restore(v)
			}
		}
		words[i] = WordTranscription{Word: tok.Core, Variants: variants}
	}

	t.logger.Debug("transcribed words", "words", len(words), "backend", opts.Backend, "stress", opts.Stress.String())
	return words, nil
}

// Transcribe returns the single best transcription of text, using the
// last-listed variant of every word
func (t *Transcriber) Transcribe(ctx context.Context, text string, opts Options) (string, error) {
	words, err := t.Words(ctx, text, opts)
	if err != nil {
		return "", err
	}
	return Best(variantLists(words))
}

// TranscribeAll returns every sentence-level combination, sorted
func (t *Transcriber) TranscribeAll(ctx context.Context, text string, opts Options) ([]string, error) {
	words, err := t.Words(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	return Combinations(variantLists(words))
}

// WordKnown reports whether every word of text has a dictionary entry.
// Text without any word is not known.
func (t *Transcriber) WordKnown(ctx context.Context, text string, kind dictionary.Kind) (bool, error) {
	keys := preprocess.Keys(text)
	if len(keys) == 0 {
		return false, nil
	}
	for _, k := range keys {
		if k == "" {
			return false, nil
		}
	}

	backend, err := t.gateway.Backend(ctx, kind)
	if err != nil {
		return false, err
	}
	found, err := backend.LookupMany(ctx, keys)
	if err != nil {
		return false, fmt.Errorf("failed to look up words: %w", err)
	}
	for _, k := range keys {
		if len(found[k]) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// WordsContainingIPA lists dictionary entries whose unmarked IPA contains
// fragment
func (t *Transcriber) WordsContainingIPA(ctx context.Context, fragment string, kind dictionary.Kind) ([]dictionary.IPAMatch, error) {
	backend, err := t.gateway.Backend(ctx, kind)
	if err != nil {
		return nil, err
	}
	matches, err := backend.ContainsIPA(ctx, norm.NFC.String(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to search ipa: %w", err)
	}
	return matches, nil
}

func variantLists(words []WordTranscription) [][]string {
	lists := make([][]string, len(words))
	for i, w := range words {
		lists[i] = w.Variants
	}
	return lists
}

// normalizeCustom keys the overrides the same way input words are keyed.
// Overrides without any variant are ignored.
func normalizeCustom(custom map[string][]string) map[string][]string {
	out := make(map[string][]string, len(custom))
	for word, variants := range custom {
		if len(variants) == 0 {
			continue
		}
		out[preprocess.Normalize(word)] = variants
	}
	return out
}
