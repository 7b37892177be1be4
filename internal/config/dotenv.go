package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvKeyAPIKey is the credential variable read from the environment and the
// dotenv file.
const EnvKeyAPIKey = "GROQ_API_KEY"

// LoadDotEnv reads the dotenv file at path and returns key/value pairs.
//
// Parsing rules:
// - Lines starting with '#' are ignored.
// - Empty lines are ignored.
// - Lines must be of form KEY=VALUE.
// - Whitespace around KEY is trimmed.
// - VALUE is taken as-is (no quote parsing).
func LoadDotEnv(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("cannot open dotenv file %s: %w", path, err)
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		k := strings.TrimSpace(line[:i])
		v := line[i+1:]
		if k == "" {
			continue
		}
		out[k] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", path, err)
	}
	return out, nil
}

// APIKey returns the effective credential, using the process environment
// first and falling back to the dotenv file at path. A missing key yields an
// empty string, not an error.
func APIKey(path string) (string, error) {
	if v := os.Getenv(EnvKeyAPIKey); v != "" {
		return v, nil
	}
	dotenv, err := LoadDotEnv(path)
	if err != nil {
		return "", err
	}
	return dotenv[EnvKeyAPIKey], nil
}

// SaveAPIKey writes the credential into the dotenv file at path, creating the
// file when missing and updating the existing line in place otherwise. Other
// lines, including comments, are preserved.
func SaveAPIKey(path, key string) error {
	line := EnvKeyAPIKey + "=" + key

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot read dotenv file %s: %w", path, err)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("cannot create dotenv dir: %w", err)
			}
		}
		return os.WriteFile(path, []byte(line+"\n"), 0o600)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	replaced := false
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, EnvKeyAPIKey+"=") {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, line)
	}
	body := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return fmt.Errorf("cannot write dotenv file %s: %w", path, err)
	}
	return nil
}
