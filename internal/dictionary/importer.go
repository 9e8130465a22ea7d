package dictionary

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/engipa/internal/phoneme"
)

// Record is one pronunciation variant read from a CMU-format file
type Record struct {
	Word     string
	Phonemes string
}

// ImportStats summarizes a parsed dictionary file
type ImportStats struct {
	TotalLines   int `json:"total_lines"`
	CommentLines int `json:"comment_lines"`
	Records      int `json:"records"`
	UniqueWords  int `json:"unique_words"`
}

// errSkipLine marks comments and blank lines
var errSkipLine = errors.New("skip line")

// ParseCMU reads the CMU Pronouncing Dictionary format:
//
//	WORD  PH1 PH2 ...
//	WORD(2)  PH1 PH2 ...
//
// Lines starting with ";;;" are comments, as is anything after " #".
// Words and phonemes are lower-cased; variants keep their file order.
func ParseCMU(r io.Reader) ([]Record, ImportStats, error) {
	var (
		records []Record
		stats   ImportStats
	)
	words := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats.TotalLines++
		line := scanner.Text()

		rec, err := parseCMULine(line)
		if errors.Is(err, errSkipLine) {
			if strings.HasPrefix(line, ";;;") {
				stats.CommentLines++
			}
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", stats.TotalLines, err)
		}

		records = append(records, rec)
		words[rec.Word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read dictionary: %w", err)
	}

	stats.Records = len(records)
	stats.UniqueWords = len(words)
	return records, stats, nil
}

func parseCMULine(line string) (Record, error) {
	if idx := strings.Index(line, " #"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ";;;") {
		return Record{}, errSkipLine
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Record{}, fmt.Errorf("expected word and phonemes, got %q", line)
	}

	word := strings.ToLower(fields[0])
	if open := strings.LastIndexByte(word, '('); open > 0 && strings.HasSuffix(word, ")") {
		word = word[:open]
	}

	return Record{
		Word:     word,
		Phonemes: phoneme.Parse(strings.Join(fields[1:], " ")).String(),
	}, nil
}

// WriteSQLite creates a structured-store database at path, replacing any
// existing file. The eng_ipa table holds the fully stress-marked IPA of
// every distinct variant.
func WriteSQLite(ctx context.Context, path string, records []Record) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old database: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if err := createTables(ctx, db); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if err := insertRecords(ctx, db, records); err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE dictionary (
			word text NOT NULL,
			phonemes text NOT NULL
		)`,
		`CREATE TABLE eng_ipa (
			word text NOT NULL,
			ipa text NOT NULL
		)`,
		`CREATE INDEX ix_dictionary_word ON dictionary (word)`,
		`CREATE INDEX ix_eng_ipa_word ON eng_ipa (word)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func insertRecords(ctx context.Context, db *sql.DB, records []Record) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dictStmt, err := tx.PrepareContext(ctx, "INSERT INTO dictionary (word, phonemes) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer dictStmt.Close()

	ipaStmt, err := tx.PrepareContext(ctx, "INSERT INTO eng_ipa (word, ipa) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer ipaStmt.Close()

	seen := make(map[IPAMatch]struct{})
	for _, rec := range records {
		if _, err := dictStmt.ExecContext(ctx, rec.Word, rec.Phonemes); err != nil {
			return fmt.Errorf("failed to insert %q: %w", rec.Word, err)
		}

		m := IPAMatch{Word: rec.Word, IPA: phoneme.ToIPA(phoneme.Parse(rec.Phonemes), phoneme.StressAll)}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		if _, err := ipaStmt.ExecContext(ctx, m.Word, m.IPA); err != nil {
			return fmt.Errorf("failed to insert ipa for %q: %w", rec.Word, err)
		}
	}

	return tx.Commit()
}

// WriteJSON writes records as a flat map {word: [phonemes, ...]}
func WriteJSON(path string, records []Record) error {
	entries := make(map[string][]string)
	for _, rec := range records {
		entries[rec.Word] = append(entries[rec.Word], rec.Phonemes)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode dictionary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dictionary file: %w", err)
	}
	return nil
}
