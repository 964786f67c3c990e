package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Repository is the configuration store: a tree of values addressed with
// dot-notation keys ("db.primary.dsn").
//
//	// Laravel: config('mail.from')
//	from, _ := cfg.Get("mail.from")
type Repository struct {
	items map[string]any
}

// New creates a repository seeded with items. Nested maps are addressable.
func New(items map[string]any) *Repository {
	r := &Repository{items: make(map[string]any)}
	r.Merge(items)
	return r
}

// Load reads .env (if present) into the process environment and returns a
// repository holding the application defaults, overridden by environment
// variables. Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Repository {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return New(map[string]any{
		"app": map[string]any{
			"name":  env("APP_NAME", "GoAutowire"),
			"env":   env("APP_ENV", "local"),
			"debug": envBool("APP_DEBUG", true),
			"url":   env("APP_URL", "http://localhost"),
			"port":  env("APP_PORT", "8000"),
		},
		"config": map[string]any{
			"file": env("CONFIG_FILE", ""),
		},
		"container": map[string]any{
			"plan": env("CONTAINER_PLAN", ""),
		},
	})
}

// ── Access ────────────────────────────────────────────────────────────────────

// Get returns the value stored at key.
func (r *Repository) Get(key string) (any, bool) {
	var cur any = r.items
	for _, seg := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether key is set.
func (r *Repository) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores value at key, creating intermediate maps. A scalar sitting where
// a map is needed is replaced.
func (r *Repository) Set(key string, value any) {
	segs := strings.Split(key, ".")
	m := r.items
	for _, seg := range segs[:len(segs)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = normalize(value)
}

// Merge deep-merges items into the repository.
func (r *Repository) Merge(items map[string]any) {
	merge(r.items, items)
}

// All returns a copy of the whole tree.
func (r *Repository) All() map[string]any {
	return copyMap(r.items)
}

// Keys lists every leaf key in sorted order.
func (r *Repository) Keys() []string {
	var out []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := v.(map[string]any); ok {
				walk(key, sub)
				continue
			}
			out = append(out, key)
		}
	}
	walk("", r.items)
	sort.Strings(out)
	return out
}

// String returns the value at key formatted as a string, or defaultVal.
func (r *Repository) String(key, defaultVal string) string {
	v, ok := r.Get(key)
	if !ok || v == nil {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns an int value, falling back on missing or invalid values.
func (r *Repository) Int(key string, defaultVal int) int {
	v, ok := r.Get(key)
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return defaultVal
}

// Bool returns a bool value, falling back on missing or invalid values.
func (r *Repository) Bool(key string, defaultVal bool) bool {
	v, ok := r.Get(key)
	if !ok {
		return defaultVal
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// ── helpers ─────────────────────────────────────────────────────────────────

func merge(dst, src map[string]any) {
	for k, v := range src {
		v = normalize(v)
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
			dst[k] = copyMap(sub)
			continue
		}
		dst[k] = v
	}
}

// normalize turns map[any]any and map[string]string into map[string]any so
// the tree stays walkable whatever decoder produced it.
func normalize(v any) any {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, sub := range m {
			out[k] = normalize(sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, sub := range m {
			out[fmt.Sprint(k)] = normalize(sub)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, sub := range m {
			out[k] = sub
		}
		return out
	case []any:
		out := make([]any, len(m))
		for i, sub := range m {
			out[i] = normalize(sub)
		}
		return out
	}
	return v
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = copyMap(sub)
			continue
		}
		out[k] = v
	}
	return out
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
