package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadEnv merges the variables of the given .env files without touching the
// process environment. APP_NAME is stored as "app.name", MAIL_FROM_ADDRESS
// as "mail.from_address".
func (r *Repository) LoadEnv(files ...string) error {
	vars, err := godotenv.Read(files...)
	if err != nil {
		return fmt.Errorf("config: read env: %w", err)
	}
	for k, v := range vars {
		r.Set(EnvKey(k), v)
	}
	return nil
}

// EnvKey converts an environment variable name into a dot-notation key.
func EnvKey(name string) string {
	name = strings.ToLower(name)
	if section, rest, ok := strings.Cut(name, "_"); ok && section != "" && rest != "" {
		return section + "." + rest
	}
	return name
}

// LoadYAML merges a YAML document.
func (r *Repository) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	items := map[string]any{}
	if err := yaml.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	r.Merge(items)
	return nil
}

// LoadJSON merges a JSON object.
func (r *Repository) LoadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	items := map[string]any{}
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	r.Merge(items)
	return nil
}

// LoadFile dispatches on the file extension (.env, .yaml/.yml, .json).
func (r *Repository) LoadFile(path string) error {
	base := filepath.Base(path)
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".env" || strings.HasPrefix(base, ".env"):
		return r.LoadEnv(path)
	case ext == ".yaml" || ext == ".yml":
		return r.LoadYAML(path)
	case ext == ".json":
		return r.LoadJSON(path)
	default:
		return fmt.Errorf("config: unsupported file %s", path)
	}
}
