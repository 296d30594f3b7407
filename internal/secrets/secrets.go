// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the API credential for the conversion service.
//
// A credential is looked up, in order, in the process environment, in a
// dotenv file (default ".env"), and in a directory of plain-text key files
// (default ".secrets/") where the filename is the key name and the trimmed
// file contents are the value.
//
// Supported key files: openai-api-key, anthropic-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/htmlmd/pkg/types"
)

const (
	DefaultDotEnv = ".env"
	DefaultDir    = ".secrets"
)

// Source names where a credential was found.
type Source string

const (
	SourceEnv     Source = "env"
	SourceDotEnv  Source = "dotenv"
	SourceSecrets Source = "secrets-dir"
)

// EnvVar returns the environment variable holding the provider's API key.
func EnvVar(p types.Provider) string {
	return strings.ToUpper(string(p)) + "_API_KEY"
}

// FileKey returns the .secrets/ filename holding the provider's API key.
func FileKey(p types.Provider) string {
	return string(p) + "-api-key"
}

// Resolver looks up credentials. The zero value reads the real environment,
// ".env" and ".secrets/".
type Resolver struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// DotEnvPath defaults to DefaultDotEnv.
	DotEnvPath string
	// SecretsDir defaults to DefaultDir.
	SecretsDir string
}

// APIKey returns the provider's credential and where it came from. A
// credential found nowhere wraps types.ErrAuth.
func (r Resolver) APIKey(p types.Provider) (string, Source, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	envVar := EnvVar(p)

	if v := strings.TrimSpace(getenv(envVar)); v != "" {
		return v, SourceEnv, nil
	}

	dotenv, err := readDotEnv(orDefault(r.DotEnvPath, DefaultDotEnv))
	if err != nil {
		return "", "", err
	}
	if v := strings.TrimSpace(dotenv[envVar]); v != "" {
		return v, SourceDotEnv, nil
	}

	dir := orDefault(r.SecretsDir, DefaultDir)
	files, err := Load(dir)
	if err != nil {
		return "", "", err
	}
	if v, ok := files[FileKey(p)]; ok {
		return v, SourceSecrets, nil
	}

	return "", "", fmt.Errorf("no API key for %s: set %s or create %s: %w",
		p, envVar, filepath.Join(dir, FileKey(p)), types.ErrAuth)
}

// readDotEnv parses a dotenv file without touching the process environment.
// A missing file yields an empty map.
func readDotEnv(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return m, nil
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
