//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "engipa"

// Default target to run when none is specified
var Default = Build

// Build compiles the engipa binary into the project root
func Build() error {
	fmt.Println("Building", binary)
	// go-sqlite3 needs cgo
	env := map[string]string{"CGO_ENABLED": "1"}
	return sh.RunWith(env, "go", "build", "-o", binary, "./cmd/engipa")
}

// Test runs all unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install copies the binary to ~/go/bin
func Install() error {
	mg.Deps(Build)

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, "go", "bin")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return sh.Copy(filepath.Join(dir, binary), binary)
}

// Dictionary imports a CMU dictionary file given in $CMUDICT into the
// default data directory
func Dictionary() error {
	mg.Deps(Build)

	source := os.Getenv("CMUDICT")
	if source == "" {
		return fmt.Errorf("set CMUDICT to the path of a cmudict file")
	}
	return sh.RunV("./"+binary, "import", source)
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binary)
}
