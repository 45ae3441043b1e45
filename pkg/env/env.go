// Package env reads process environment values and the optional dotenv files
// that seed them during local development.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultFiles are tried in order; earlier files win because dotenv never
// overrides a variable that is already set.
var DefaultFiles = []string{".env.local", ".env"}

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// LoadFiles applies every existing dotenv file and reports which ones were read.
// Missing files are skipped; a malformed file is an error.
func LoadFiles(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = DefaultFiles
	}
	var loaded []string
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
