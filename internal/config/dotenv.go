package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadDotEnv applies .env style files in order. Missing files are skipped and
// variables already present in the process environment are never overwritten.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		values, err := readDotEnvFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		for _, entry := range values {
			if _, exists := os.LookupEnv(entry.key); exists {
				continue
			}
			_ = os.Setenv(entry.key, entry.value)
		}
	}
	return nil
}

type dotEnvEntry struct {
	key   string
	value string
}

func readDotEnvFile(path string) ([]dotEnvEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseDotEnv(file)
}

func parseDotEnv(reader io.Reader) ([]dotEnvEntry, error) {
	var entries []dotEnvEntry
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		entries = append(entries, dotEnvEntry{key: key, value: parseDotEnvValue(value)})
	}
	return entries, scanner.Err()
}

func parseDotEnvValue(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) >= 2 {
		switch quote := trimmed[0]; {
		case quote == '\'' && trimmed[len(trimmed)-1] == quote:
			return trimmed[1 : len(trimmed)-1]
		case quote == '"' && trimmed[len(trimmed)-1] == quote:
			return unescapeDoubleQuoted(trimmed[1 : len(trimmed)-1])
		}
	}

	// VALUE # comment
	if index := strings.Index(trimmed, " #"); index >= 0 {
		return strings.TrimSpace(trimmed[:index])
	}
	return trimmed
}

var doubleQuoteEscapes = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\"`, `"`,
)

func unescapeDoubleQuoted(value string) string {
	return doubleQuoteEscapes.Replace(value)
}
