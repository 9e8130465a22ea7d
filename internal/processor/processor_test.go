package processor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/engipa/internal/cli"
	"codeberg.org/snonux/engipa/internal/dictionary"
	"codeberg.org/snonux/engipa/internal/logging"
	"codeberg.org/snonux/engipa/internal/phoneme"
	"codeberg.org/snonux/engipa/internal/rhyme"
	"codeberg.org/snonux/engipa/internal/testutil"
)

// newTestProcessor returns a processor over the fixture dictionary and the
// buffer it writes to
func newTestProcessor(t *testing.T, modify func(*cli.Flags)) (*Processor, *bytes.Buffer) {
	t.Helper()

	files := testutil.WriteDictionary(t, t.TempDir())
	flags := cli.NewFlags()
	flags.SQLPath = files.SQLPath
	flags.JSONPath = files.JSONPath
	if modify != nil {
		modify(flags)
	}

	gw := dictionary.NewGateway(dictionary.Config{
		SQLPath:  flags.SQLPath,
		JSONPath: flags.JSONPath,
		Breaker:  flags.Breaker,
	}, logging.Discard())
	t.Cleanup(func() { gw.Close() })

	var out bytes.Buffer
	return NewProcessor(flags, gw, &out, logging.Discard()), &out
}

func TestNewProcessor(t *testing.T) {
	p, _ := newTestProcessor(t, nil)

	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
	if p.Transcriber() == nil {
		t.Error("Transcriber not initialized")
	}
	if p.Matcher() == nil {
		t.Error("Matcher not initialized")
	}
}

func TestOptions(t *testing.T) {
	customFile := filepath.Join(t.TempDir(), "custom.yaml")
	testutil.CreateTestFile(t, customFile, "pronunciations:\n  - word: gif\n    ipa: ˈʤɪf\n")

	p, _ := newTestProcessor(t, func(f *cli.Flags) {
		f.Backend = "JSON"
		f.Stress = "primary"
		f.KeepPunct = false
		f.CustomFile = customFile
	})

	opts, err := p.Options()
	if err != nil {
		t.Fatalf("Options() error: %v", err)
	}
	if opts.Backend != dictionary.KindJSON {
		t.Errorf("Backend = %s, want json", opts.Backend)
	}
	if opts.Stress != phoneme.StressPrimary {
		t.Errorf("Stress = %s, want primary", opts.Stress)
	}
	if opts.KeepPunct {
		t.Error("KeepPunct = true, want false")
	}
	if got := opts.Custom["gif"]; len(got) != 1 || got[0] != "ˈʤɪf" {
		t.Errorf("Custom[gif] = %v", got)
	}
}

func TestOptionsErrors(t *testing.T) {
	p, _ := newTestProcessor(t, func(f *cli.Flags) { f.Backend = "xml" })
	if _, err := p.Options(); !errors.Is(err, dictionary.ErrUnknownBackend) {
		t.Errorf("Options() error = %v, want ErrUnknownBackend", err)
	}

	p, _ = newTestProcessor(t, func(f *cli.Flags) { f.Stress = "loud" })
	if _, err := p.Options(); !errors.Is(err, phoneme.ErrUnknownStressMode) {
		t.Errorf("Options() error = %v, want ErrUnknownStressMode", err)
	}

	p, _ = newTestProcessor(t, func(f *cli.Flags) { f.CustomFile = "/nonexistent/custom.yaml" })
	if _, err := p.Options(); err == nil {
		t.Error("Expected error for missing custom file")
	}
}

func TestProcessText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		modify func(*cli.Flags)
		want   string
	}{
		{"best", "Hello, world!", nil, "hɛlˈoʊ, wəˈrld!\n"},
		{"json backend", "Hello, world!", func(f *cli.Flags) { f.Backend = "json" }, "hɛlˈoʊ, wəˈrld!\n"},
		{"no punctuation", "Hello, world!", func(f *cli.Flags) { f.KeepPunct = false }, "hɛlˈoʊ wəˈrld\n"},
		{"no stress", "zzzqx tomato", func(f *cli.Flags) { f.Stress = "none" }, "zzzqx təmɑtoʊ\n"},
		{"json output", "hello", func(f *cli.Flags) { f.JSON = true }, `{"text":"hello","transcription":"hɛlˈoʊ"}` + "\n"},
		{"all", "hello a", func(f *cli.Flags) { f.All = true }, "həlˈoʊ ə\nhəlˈoʊ ˈeɪ\nhɛlˈoʊ ə\nhɛlˈoʊ ˈeɪ\n"},
		{
			"all json", "a", func(f *cli.Flags) { f.All = true; f.JSON = true },
			`{"text":"a","transcriptions":["ə","ˈeɪ"]}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newTestProcessor(t, tt.modify)
			if err := p.ProcessText(context.Background(), tt.text); err != nil {
				t.Fatalf("ProcessText() error: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestProcessBatch(t *testing.T) {
	batchFile := filepath.Join(t.TempDir(), "batch.txt")
	testutil.CreateTestFile(t, batchFile, `# overrides apply to every line
tomato = təˈmeɪˌtoʊ
Hello world
tomato soup
`)

	p, out := newTestProcessor(t, func(f *cli.Flags) { f.BatchFile = batchFile })
	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch() error: %v", err)
	}

	want := "hɛlˈoʊ wəˈrld\ntəˈmeɪˌtoʊ soup*\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestProcessBatch_InvalidFile(t *testing.T) {
	p, _ := newTestProcessor(t, func(f *cli.Flags) { f.BatchFile = "/nonexistent/file.txt" })

	if err := p.ProcessBatch(context.Background()); err == nil {
		t.Error("Expected error for non-existent batch file")
	}
}

func TestProcessBatch_Cancelled(t *testing.T) {
	batchFile := filepath.Join(t.TempDir(), "batch.txt")
	testutil.CreateTestFile(t, batchFile, "hello\nworld\n")
	p, out := newTestProcessor(t, func(f *cli.Flags) { f.BatchFile = batchFile })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.ProcessBatch(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ProcessBatch() error = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output, got %q", out.String())
	}
}

func TestRhymes(t *testing.T) {
	tests := []struct {
		name   string
		words  []string
		modify func(*cli.Flags)
		want   string
	}{
		{"single", []string{"cat"}, nil, "bat\nhat\n"},
		{"flat", []string{"cat"}, func(f *cli.Flags) { f.Flat = true }, "bat\nhat\n"},
		{"several", []string{"cat", "red"}, nil, "cat: bat hat\nred: bed\n"},
		{"several quoted", []string{"cat red"}, func(f *cli.Flags) { f.Flat = true }, "cat: bat hat\nred: bed\n"},
		{"json", []string{"cat"}, func(f *cli.Flags) { f.JSON = true }, `["bat","hat"]` + "\n"},
		{"json nested", []string{"cat", "red"}, func(f *cli.Flags) { f.JSON = true }, `[["bat","hat"],["bed"]]` + "\n"},
		{"no rhymes json", []string{"world"}, func(f *cli.Flags) { f.JSON = true }, "[]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newTestProcessor(t, tt.modify)
			if err := p.Rhymes(context.Background(), tt.words); err != nil {
				t.Fatalf("Rhymes() error: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRhymesUnknownWord(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	if err := p.Rhymes(context.Background(), []string{"zzzqx"}); !errors.Is(err, rhyme.ErrUnknownWord) {
		t.Errorf("Rhymes() error = %v, want ErrUnknownWord", err)
	}
}

func TestKnown(t *testing.T) {
	tests := []struct {
		words []string
		json  bool
		want  string
	}{
		{[]string{"hello"}, false, "true\n"},
		{[]string{"hello", "zzzqx"}, false, "false\n"},
		{[]string{"Hello,", "world!"}, true, `{"known":true}` + "\n"},
	}

	for _, tt := range tests {
		p, out := newTestProcessor(t, func(f *cli.Flags) { f.JSON = tt.json })
		if err := p.Known(context.Background(), tt.words); err != nil {
			t.Fatalf("Known(%v) error: %v", tt.words, err)
		}
		if out.String() != tt.want {
			t.Errorf("Known(%v) output = %q, want %q", tt.words, out.String(), tt.want)
		}
	}
}

func TestContains(t *testing.T) {
	p, out := newTestProcessor(t, nil)
	if err := p.Contains(context.Background(), "æt"); err != nil {
		t.Fatalf("Contains() error: %v", err)
	}
	want := "bat\tbˈæt\ncat\tkˈæt\nhat\thˈæt\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	p, out = newTestProcessor(t, func(f *cli.Flags) { f.JSON = true })
	if err := p.Contains(context.Background(), "xyz"); err != nil {
		t.Fatalf("Contains() error: %v", err)
	}
	if out.String() != "[]\n" {
		t.Errorf("output = %q, want []", out.String())
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "cmudict.dict")
	testutil.CreateTestFile(t, source, testutil.FixtureCMU)

	flags := cli.NewFlags()
	flags.SQLPath = filepath.Join(dir, "data", "cmudict.db")
	flags.JSONPath = filepath.Join(dir, "data", "cmudict.json")
	gw := dictionary.NewGateway(dictionary.Config{SQLPath: flags.SQLPath, JSONPath: flags.JSONPath}, logging.Discard())
	t.Cleanup(func() { gw.Close() })

	var out bytes.Buffer
	p := NewProcessor(flags, gw, &out, logging.Discard())
	if err := p.Import(context.Background(), source); err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	testutil.AssertFileExists(t, flags.SQLPath)
	testutil.AssertFileContains(t, flags.JSONPath, `"hello":["hh ah0 l ow1","hh eh0 l ow1"]`)
	if want := "Imported 22 pronunciations of 14 words\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	out.Reset()
	if err := p.ProcessText(context.Background(), "hello"); err != nil {
		t.Fatalf("ProcessText() after import error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "hɛlˈoʊ" {
		t.Errorf("output = %q after import", out.String())
	}
}

func TestImportErrors(t *testing.T) {
	p, _ := newTestProcessor(t, nil)

	if err := p.Import(context.Background(), "/nonexistent/cmudict.dict"); err == nil {
		t.Error("Expected error for missing source")
	}

	empty := filepath.Join(t.TempDir(), "empty.dict")
	if err := os.WriteFile(empty, []byte(";;; nothing here\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := p.Import(context.Background(), empty); err == nil {
		t.Error("Expected error for a source without entries")
	}
}
