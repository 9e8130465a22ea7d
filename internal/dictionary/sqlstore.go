package dictionary

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/engipa/internal/phoneme"
)

// SQLStore is the structured-store backend over a SQLite file with the
// tables dictionary(word, phonemes) and eng_ipa(word, ipa)
type SQLStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLStore opens an existing dictionary database read-only
func OpenSQLStore(ctx context.Context, path string, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open dictionary database: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to dictionary database: %w", err)
	}

	logger.Info("opened dictionary database", "path", path)
	return &SQLStore{db: db, path: path, logger: logger}, nil
}

// LookupMany fetches all variants of keys in insertion order
func (s *SQLStore) LookupMany(ctx context.Context, keys []string) (map[string][]phoneme.Entry, error) {
	result := make(map[string][]phoneme.Entry)
	keys = distinct(keys)
	if len(keys) == 0 {
		return result, nil
	}

	query, args, err := sq.Select("word", "phonemes").
		From("dictionary").
		Where(sq.Eq{"word": keys}).
		OrderBy("rowid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up words: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var word, phonemes string
		if err := rows.Scan(&word, &phonemes); err != nil {
			return nil, fmt.Errorf("failed to read lookup row: %w", err)
		}
		result[word] = append(result[word], phoneme.Parse(phonemes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to look up words: %w", err)
	}

	s.logger.Debug("dictionary lookup", "backend", s.Name(), "keys", len(keys), "found", len(result))
	return result, nil
}

// SuffixSearch matches the suffix with a LIKE pattern on the phoneme column
func (s *SQLStore) SuffixSearch(ctx context.Context, suffix phoneme.Entry, excludeKey, excludeFull string) ([]string, error) {
	tail := suffix.String()
	query, args, err := sq.Select("DISTINCT word").
		From("dictionary").
		Where(sq.Or{
			sq.Eq{"phonemes": tail},
			sq.Expr(`phonemes LIKE ? ESCAPE '\'`, "% "+escapeLike(tail)),
		}).
		Where(sq.NotEq{"word": excludeKey}).
		Where(sq.NotEq{"phonemes": excludeFull}).
		OrderBy("word").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build suffix query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search suffix: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("failed to read suffix row: %w", err)
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to search suffix: %w", err)
	}
	return words, nil
}

// ContainsIPA searches the precomputed eng_ipa table
func (s *SQLStore) ContainsIPA(ctx context.Context, fragment string) ([]IPAMatch, error) {
	fragment = phoneme.StripMarks(fragment)
	if fragment == "" {
		return nil, nil
	}

	stripped := fmt.Sprintf("REPLACE(REPLACE(ipa, '%s', ''), '%s', '')", phoneme.SecondaryMark, phoneme.PrimaryMark)
	query, args, err := sq.Select("DISTINCT word", "ipa").
		From("eng_ipa").
		Where(sq.Expr("instr("+stripped+", ?) > 0", fragment)).
		OrderBy("word", "ipa").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ipa query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search ipa: %w", err)
	}
	defer rows.Close()

	var matches []IPAMatch
	for rows.Next() {
		var m IPAMatch
		if err := rows.Scan(&m.Word, &m.IPA); err != nil {
			return nil, fmt.Errorf("failed to read ipa row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to search ipa: %w", err)
	}

	// SQLite orders by bytes, which matches Go string ordering
	return matches, nil
}

// Name returns the backend name
func (s *SQLStore) Name() string {
	return string(KindSQL)
}

// Close closes the database handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
