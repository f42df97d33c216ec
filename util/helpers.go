// Package util provides utility functions for the backend.
package util

import (
	"os"
	"strings"
)

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// IsEmpty checks if a string is empty or contains only whitespace
func IsEmpty(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

// IsNotEmpty checks if a string is not empty
func IsNotEmpty(s string) bool {
	return !IsEmpty(s)
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// SplitPackageName tokenizes a package name on the separators that commonly
// carry a vendor/namespace prefix (dots, slashes, colons). Returns nil when
// the name has no separator at all.
func SplitPackageName(name string) []string {
	if !strings.ContainsAny(name, "./:") {
		return nil
	}
	tokens := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '.' || r == '/' || r == ':'
	})
	var out []string
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
