// Package config loads ambient interpreter settings from the process
// environment, optionally populated from a ".env" file in the current
// working directory.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the interpreter settings read from the environment. No other
// package in this module reads a Config: interp's import handling passes
// filenames to its driver.Loader unchanged, and railerr.Error prints every
// stack frame.
type Config struct {
	// ImportPath holds RAILWAY_IMPORT_PATH, "." when unset.
	ImportPath string
	// StackTraceDepth holds RAILWAY_STACK_TRACE as an integer, 0 when
	// unset.
	StackTraceDepth int
}

const (
	envImportPath = "RAILWAY_IMPORT_PATH"
	envStackTrace = "RAILWAY_STACK_TRACE"
)

// Load reads a .env file if one is present (a missing file is not an
// error) and then builds a Config from whatever ends up in the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	depth, err := getenvInt(envStackTrace, 0)
	if err != nil {
		return nil, err
	}
	return &Config{
		ImportPath:      getenv(envImportPath, "."),
		StackTraceDepth: depth,
	}, nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getenvInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
