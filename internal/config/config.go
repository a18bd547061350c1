// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: config  —  persistent CLI configuration
//
//  Stored at:
//    Linux/macOS: $XDG_CONFIG_HOME/embeddemo/config.json (~/.config fallback)
//    Windows:     %APPDATA%\embeddemo\config.json
// ─────────────────────────────────────────────────────────────────────────────

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
)

// Config holds all persistent user-level settings.
type Config struct {
	// ── Compilers ───────────────────────────────────────────────────────────
	GoBinary     string `json:"go_binary"     comment:"go toolchain used for host tools"`
	TinyGoBinary string `json:"tinygo_binary" comment:"tinygo toolchain used for firmware"`
	// Compilers is the search order for host tools; the first one on PATH wins.
	Compilers []string `json:"compilers" comment:"host tool compilers, in search order"`

	// ── Board ───────────────────────────────────────────────────────────────
	DefaultPort string `json:"default_port" comment:"serial port (empty = auto-detect)"`
	DefaultBaud int    `json:"default_baud" comment:"serial baud rate when the env sets none"`

	// ── Output ──────────────────────────────────────────────────────────────
	Color   bool `json:"color"   comment:"enable colored output"`
	Verbose bool `json:"verbose" comment:"verbose command output"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		GoBinary:     "go",
		TinyGoBinary: "tinygo",
		Compilers:    []string{"go", "tinygo"},
		DefaultPort:  "",
		DefaultBaud:  9600,
		Color:        true,
		Verbose:      false,
	}
}

// ── Env overrides ─────────────────────────────────────────────────────────────

// ResolvedGoBinary returns EMBEDDEMO_GO if set, else the configured binary.
func (c *Config) ResolvedGoBinary() string {
	if env := os.Getenv("EMBEDDEMO_GO"); env != "" {
		return env
	}
	return c.GoBinary
}

// ResolvedTinyGoBinary returns EMBEDDEMO_TINYGO if set, else the configured binary.
func (c *Config) ResolvedTinyGoBinary() string {
	if env := os.Getenv("EMBEDDEMO_TINYGO"); env != "" {
		return env
	}
	return c.TinyGoBinary
}

// ResolvedCompilers returns the host compiler search order. A go_binary
// override replaces the bare "go" entry.
func (c *Config) ResolvedCompilers() []string {
	out := make([]string, 0, len(c.Compilers))
	for _, name := range c.Compilers {
		switch strings.TrimSpace(name) {
		case "":
			continue
		case "go":
			out = append(out, c.ResolvedGoBinary())
		case "tinygo":
			out = append(out, c.ResolvedTinyGoBinary())
		default:
			out = append(out, name)
		}
	}
	return out
}

// ResolvedPort returns EMBEDDEMO_PORT if set, else the configured port.
func (c *Config) ResolvedPort() string {
	if env := os.Getenv("EMBEDDEMO_PORT"); env != "" {
		return env
	}
	return c.DefaultPort
}

// ── Config file I/O ───────────────────────────────────────────────────────────

func configPath() (string, error) {
	var base string
	switch {
	case os.Getenv("XDG_CONFIG_HOME") != "":
		base = os.Getenv("XDG_CONFIG_HOME")
	case runtime.GOOS == "windows" && os.Getenv("APPDATA") != "":
		base = os.Getenv("APPDATA")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "embeddemo", "config.json"), nil
}

// Load reads the config from disk. Returns defaults if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return c, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func (c *Config) field(key string) (reflect.Value, error) {
	rv := reflect.ValueOf(c).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if tag == key || strings.EqualFold(field.Name, key) {
			return rv.Field(i), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("unknown config key %q", key)
}

// Get returns the value of a config key by its JSON name.
func (c *Config) Get(key string) (interface{}, error) {
	fv, err := c.field(key)
	if err != nil {
		return nil, err
	}
	return fv.Interface(), nil
}

// Set updates a config key by its JSON name.
func (c *Config) Set(key, value string) error {
	fv, err := c.field(key)
	if err != nil {
		return err
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool value %q for key %q", value, key)
		}
		fv.SetBool(b)
	case reflect.Int:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int value %q for key %q", value, key)
		}
		fv.SetInt(n)
	case reflect.Slice:
		// comma-separated
		parts := strings.Split(value, ",")
		slice := reflect.MakeSlice(fv.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				slice = reflect.Append(slice, reflect.ValueOf(p))
			}
		}
		fv.Set(slice)
	default:
		return fmt.Errorf("unsupported type for key %q", key)
	}
	return nil
}

type Entry struct {
	Key     string
	Value   interface{}
	Comment string
}

func (c *Config) AllEntries() []Entry {
	rv := reflect.ValueOf(c).Elem()
	rt := rv.Type()
	entries := make([]Entry, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		entries = append(entries, Entry{
			Key:     strings.Split(field.Tag.Get("json"), ",")[0],
			Value:   rv.Field(i).Interface(),
			Comment: field.Tag.Get("comment"),
		})
	}
	return entries
}

func Path() (string, error) {
	return configPath()
}
