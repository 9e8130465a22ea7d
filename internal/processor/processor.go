package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/engipa/internal/batch"
	"codeberg.org/snonux/engipa/internal/cli"
	"codeberg.org/snonux/engipa/internal/dictionary"
	"codeberg.org/snonux/engipa/internal/phoneme"
	"codeberg.org/snonux/engipa/internal/rhyme"
	"codeberg.org/snonux/engipa/internal/transcribe"
)

// Processor handles the command-line operations
type Processor struct {
	flags       *cli.Flags
	gateway     *dictionary.Gateway
	transcriber *transcribe.Transcriber
	matcher     *rhyme.Matcher
	out         io.Writer
	logger      *slog.Logger
}

// NewProcessor creates a processor writing results to out
func NewProcessor(flags *cli.Flags, gw *dictionary.Gateway, out io.Writer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		flags:       flags,
		gateway:     gw,
		transcriber: transcribe.New(gw, logger),
		matcher:     rhyme.New(gw, logger),
		out:         out,
		logger:      logger,
	}
}

// Transcriber returns the transcriber the processor runs on
func (p *Processor) Transcriber() *transcribe.Transcriber {
	return p.transcriber
}

// Matcher returns the rhyme matcher the processor runs on
func (p *Processor) Matcher() *rhyme.Matcher {
	return p.matcher
}

// Backend returns the configured dictionary backend
func (p *Processor) Backend() (dictionary.Kind, error) {
	return dictionary.ParseKind(p.flags.Backend)
}

// Options builds the transcription options from the flags, loading the
// custom pronunciation file when one is configured
func (p *Processor) Options() (transcribe.Options, error) {
	opts := transcribe.DefaultOptions()

	kind, err := p.Backend()
	if err != nil {
		return opts, err
	}
	opts.Backend = kind

	stress, err := phoneme.ParseStressMode(p.flags.Stress)
	if err != nil {
		return opts, err
	}
	opts.Stress = stress
	opts.KeepPunct = p.flags.KeepPunct

	if p.flags.CustomFile != "" {
		custom, err := batch.LoadCustomYAML(p.flags.CustomFile)
		if err != nil {
			return opts, err
		}
		opts.Custom = custom
		p.logger.Debug("loaded custom pronunciations", "path", p.flags.CustomFile, "words", len(custom))
	}
	return opts, nil
}

// ProcessText transcribes one text: the best transcription, or every
// combination with --all
func (p *Processor) ProcessText(ctx context.Context, text string) error {
	opts, err := p.Options()
	if err != nil {
		return err
	}
	return p.transcribeText(ctx, text, opts)
}

// ProcessBatch transcribes every text line of the batch file. Override
// lines of the file extend the custom pronunciations. A failing line is
// reported and skipped.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	file, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}

	opts, err := p.Options()
	if err != nil {
		return err
	}
	opts.Custom = batch.Merge(opts.Custom, file.Custom)

	// Track statistics
	processedCount := 0
	errorCount := 0

	for i, text := range file.Texts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.transcribeText(ctx, text, opts); err != nil {
			p.logger.Error("failed to transcribe line", "line", i+1, "error", err)
			errorCount++
			continue
		}
		processedCount++
	}

	p.logger.Info("batch finished",
		"file", p.flags.BatchFile,
		"texts", len(file.Texts),
		"processed", processedCount,
		"errors", errorCount,
		"custom", len(file.Custom),
	)
	if errorCount > 0 {
		return fmt.Errorf("failed to transcribe %d of %d lines", errorCount, len(file.Texts))
	}
	return nil
}

type transcription struct {
	Text           string   `json:"text"`
	Transcription  string   `json:"transcription,omitempty"`
	Transcriptions []string `json:"transcriptions,omitempty"`
}

func (p *Processor) transcribeText(ctx context.Context, text string, opts transcribe.Options) error {
	if !p.flags.All {
		best, err := p.transcriber.Transcribe(ctx, text, opts)
		if err != nil {
			return err
		}
		if p.flags.JSON {
			return p.writeJSON(transcription{Text: text, Transcription: best})
		}
		return p.writeLines(best)
	}

	all, err := p.transcriber.TranscribeAll(ctx, text, opts)
	if err != nil {
		return err
	}
	if p.flags.JSON {
		return p.writeJSON(transcription{Text: text, Transcriptions: all})
	}
	return p.writeLines(all...)
}

// Rhymes prints the rhymes of every word. A single word prints one rhyme
// per line; several words print one "word: rhymes" line each.
func (p *Processor) Rhymes(ctx context.Context, words []string) error {
	kind, err := p.Backend()
	if err != nil {
		return err
	}
	text := strings.Join(words, " ")
	keys := strings.Fields(text)

	if len(keys) == 1 {
		var rhymes []string
		if p.flags.Flat {
			rhymes, err = p.matcher.FindFlat(ctx, keys[0])
		} else {
			rhymes, err = p.matcher.Find(ctx, keys[0], kind)
		}
		if err != nil {
			return err
		}
		if p.flags.JSON {
			return p.writeJSON(rhymes)
		}
		return p.writeLines(rhymes...)
	}

	if p.flags.Flat {
		kind = dictionary.KindJSON
	}
	lists, err := p.matcher.FindEach(ctx, text, kind)
	if err != nil {
		return err
	}
	if p.flags.JSON {
		return p.writeJSON(lists)
	}
	for i, list := range lists {
		if err := p.writeLines(fmt.Sprintf("%s: %s", keys[i], strings.Join(list, " "))); err != nil {
			return err
		}
	}
	return nil
}

// Known prints whether every word has a dictionary entry
func (p *Processor) Known(ctx context.Context, words []string) error {
	kind, err := p.Backend()
	if err != nil {
		return err
	}
	known, err := p.transcriber.WordKnown(ctx, strings.Join(words, " "), kind)
	if err != nil {
		return err
	}
	if p.flags.JSON {
		return p.writeJSON(map[string]bool{"known": known})
	}
	return p.writeLines(fmt.Sprint(known))
}

// Contains prints the entries whose IPA contains fragment
func (p *Processor) Contains(ctx context.Context, fragment string) error {
	kind, err := p.Backend()
	if err != nil {
		return err
	}
	matches, err := p.transcriber.WordsContainingIPA(ctx, fragment, kind)
	if err != nil {
		return err
	}
	if p.flags.JSON {
		if matches == nil {
			matches = []dictionary.IPAMatch{}
		}
		return p.writeJSON(matches)
	}
	for _, m := range matches {
		if err := p.writeLines(m.Word + "\t" + m.IPA); err != nil {
			return err
		}
	}
	return nil
}

// Import builds both dictionary files from a CMU-format source file
func (p *Processor) Import(ctx context.Context, source string) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open dictionary source: %w", err)
	}
	defer f.Close()

	records, stats, err := dictionary.ParseCMU(f)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no dictionary entries in %s", source)
	}

	for _, path := range []string{p.flags.SQLPath, p.flags.JSONPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create dictionary directory: %w", err)
		}
	}
	if err := dictionary.WriteSQLite(ctx, p.flags.SQLPath, records); err != nil {
		return err
	}
	if err := dictionary.WriteJSON(p.flags.JSONPath, records); err != nil {
		return err
	}

	p.logger.Info("imported dictionary",
		"source", source,
		"lines", stats.TotalLines,
		"comments", stats.CommentLines,
		"sql", p.flags.SQLPath,
		"json", p.flags.JSONPath,
	)
	if p.flags.JSON {
		return p.writeJSON(stats)
	}
	return p.writeLines(fmt.Sprintf("Imported %d pronunciations of %d words", stats.Records, stats.UniqueWords))
}

func (p *Processor) writeLines(lines ...string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(p.out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func (p *Processor) writeJSON(v any) error {
	if err := json.NewEncoder(p.out).Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
