package testutil

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/engipa/internal/dictionary"
)

// FixtureCMU is a small CMU-format dictionary used across package tests
const FixtureCMU = `;;; engipa test dictionary
A  AH0
A(2)  EY1
BAT  B AE1 T
BED  B EH1 D
CAT  K AE1 T
DON'T  D OW1 N T
HAT  HH AE1 T
HELLO  HH AH0 L OW1
HELLO(2)  HH EH0 L OW1
ORANGE  AO1 R AH0 N JH
ORANGE(2)  AO1 R IH0 N JH
READ  R EH1 D
READ(2)  R IY1 D
RED  R EH1 D
THE  DH AH0
THE(2)  DH AH1
THE(3)  DH IY0
TOMATO  T AH0 M EY1 T OW2
TOMATO(2)  T AH0 M AA1 T OW2
TWIN  T W IH1 N
TWIN(2)  T W IH1 N
WORLD  W ER1 L D
`

// DictionaryFiles holds the paths of an imported fixture dictionary
type DictionaryFiles struct {
	SQLPath  string
	JSONPath string
}

// WriteDictionary imports FixtureCMU into a SQLite and a JSON file under dir
func WriteDictionary(t *testing.T, dir string) DictionaryFiles {
	t.Helper()

	records, _, err := dictionary.ParseCMU(strings.NewReader(FixtureCMU))
	if err != nil {
		t.Fatalf("Failed to parse fixture dictionary: %v", err)
	}

	files := DictionaryFiles{
		SQLPath:  filepath.Join(dir, "cmu.db"),
		JSONPath: filepath.Join(dir, "cmu.json"),
	}
	if err := dictionary.WriteSQLite(context.Background(), files.SQLPath, records); err != nil {
		t.Fatalf("Failed to write fixture database: %v", err)
	}
	if err := dictionary.WriteJSON(files.JSONPath, records); err != nil {
		t.Fatalf("Failed to write fixture json: %v", err)
	}
	return files
}

// NewGateway returns a gateway over a freshly imported fixture dictionary.
// The gateway is closed when the test ends.
func NewGateway(t *testing.T) *dictionary.Gateway {
	t.Helper()

	files := WriteDictionary(t, t.TempDir())
	gw := dictionary.NewGateway(dictionary.Config{
		SQLPath:  files.SQLPath,
		JSONPath: files.JSONPath,
	}, nil)
	t.Cleanup(func() {
		gw.Close()
	})
	return gw
}
