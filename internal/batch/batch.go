// Package batch reads the input files of batch runs: plain text files with
// one sentence per line and YAML files of custom pronunciations.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// File is the content of a batch file
type File struct {
	// Texts are transcribed one per line, in file order
	Texts []string
	// Custom holds the pronunciation overrides declared in the file
	Custom map[string][]string
}

// ReadBatchFile reads a batch file.
// Supports formats:
// - Text only: "The cat sat on the mat" (transcribed)
// - Override: "tomato = təˈmɑˌtoʊ | təˈmeɪˌtoʊ" (custom pronunciations)
// - Comment: "# anything" (ignored)
func ReadBatchFile(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads batch lines from r
func Parse(r io.Reader) (*File, error) {
	file := &File{Custom: map[string][]string{}}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, ipa, ok := strings.Cut(line, "=")
		if !ok {
			file.Texts = append(file.Texts, line)
			continue
		}

		word = strings.TrimSpace(word)
		variants := splitVariants(ipa)
		// Ignore overrides missing either side
		if word == "" || len(variants) == 0 {
			continue
		}
		file.Custom[word] = append(file.Custom[word], variants...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	return file, nil
}

// splitVariants splits "a | b" into its non-empty variants
func splitVariants(s string) []string {
	var variants []string
	for _, v := range strings.Split(s, "|") {
		if v = strings.TrimSpace(v); v != "" {
			variants = append(variants, v)
		}
	}
	return variants
}

// Merge adds the overrides of src to dst. Words present in both get the
// variants of src appended after their own.
func Merge(dst, src map[string][]string) map[string][]string {
	if dst == nil {
		dst = make(map[string][]string, len(src))
	}
	for word, variants := range src {
		dst[word] = append(dst[word], variants...)
	}
	return dst
}
