// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: manifest  —  embeddemo.toml
//
//  Declares the host tools ([[tool]]) and the firmware build environments
//  ([[env]]) of a project:
//
//    [project]
//    name         = "embed-demo"
//    default_envs = ["uno"]
//
//    [build]
//    output_dir = "build"
//
//    [[tool]]
//    name    = "sample_tool"
//    package = "./cmd/sample_tool"
//
//    [[env]]
//    name    = "uno"
//    target  = "arduino"
//    package = "./firmware/looper"
//    baud    = 9600
// ─────────────────────────────────────────────────────────────────────────────

package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const FileName = "embeddemo.toml"

var (
	ErrNoManifest         = errors.New("no " + FileName + " found")
	ErrNoEnvironment      = errors.New("no environment specified and no default_envs in " + FileName)
	ErrUnknownEnvironment = errors.New("unknown environment")
	ErrUnknownTool        = errors.New("unknown tool")
)

// Manifest is the in-memory representation of embeddemo.toml.
type Manifest struct {
	Project ProjectMeta `toml:"project"`
	Build   BuildConfig `toml:"build"`
	Tools   []Tool      `toml:"tool"`
	Envs    []Env       `toml:"env"`
}

// ProjectMeta maps to the [project] table.
type ProjectMeta struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version,omitempty"`
	Description string   `toml:"description,omitempty"`
	DefaultEnvs []string `toml:"default_envs"`
}

// BuildConfig maps to the [build] table.
type BuildConfig struct {
	OutputDir  string   `toml:"output_dir"`
	ExtraFlags []string `toml:"extra_flags,omitempty"`
}

// Tool is a host program built with the go toolchain.
type Tool struct {
	Name       string   `toml:"name"`
	Package    string   `toml:"package"`
	ExtraFlags []string `toml:"extra_flags,omitempty"`
}

// Env is a firmware build environment built with tinygo.
type Env struct {
	Name    string `toml:"name"`
	Target  string `toml:"target"`           // tinygo -target
	Package string `toml:"package"`          // main package of the firmware
	Format  string `toml:"format,omitempty"` // "elf" | "hex"
	Port    string `toml:"port,omitempty"`
	Baud    int    `toml:"baud,omitempty"`
}

// ── Load / save ───────────────────────────────────────────────────────────────

// Load reads <dir>/embeddemo.toml.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w in %s", ErrNoManifest, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates manifest TOML.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if _, err := toml.Decode(string(data), m); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Build.OutputDir == "" {
		m.Build.OutputDir = "build"
	}
	for i := range m.Tools {
		if m.Tools[i].Package == "" {
			m.Tools[i].Package = "./cmd/" + m.Tools[i].Name
		}
	}
	for i := range m.Envs {
		if m.Envs[i].Format == "" {
			m.Envs[i].Format = "elf"
		}
	}
}

// Validate checks names are unique and every reference resolves.
func (m *Manifest) Validate() error {
	seen := map[string]bool{}
	for _, t := range m.Tools {
		if t.Name == "" {
			return errors.New("[[tool]] entry without a name")
		}
		if seen["tool:"+t.Name] {
			return fmt.Errorf("duplicate [[tool]] %q", t.Name)
		}
		seen["tool:"+t.Name] = true
	}
	for _, e := range m.Envs {
		switch {
		case e.Name == "":
			return errors.New("[[env]] entry without a name")
		case seen["env:"+e.Name]:
			return fmt.Errorf("duplicate [[env]] %q", e.Name)
		case e.Target == "":
			return fmt.Errorf("[[env]] %q has no target", e.Name)
		case e.Package == "":
			return fmt.Errorf("[[env]] %q has no package", e.Name)
		case e.Format != "elf" && e.Format != "hex":
			return fmt.Errorf("[[env]] %q: unsupported format %q (want elf or hex)", e.Name, e.Format)
		}
		seen["env:"+e.Name] = true
	}
	for _, name := range m.Project.DefaultEnvs {
		if !seen["env:"+name] {
			return fmt.Errorf("default_envs: %w %q", ErrUnknownEnvironment, name)
		}
	}
	return nil
}

// Save writes the manifest to <dir>/embeddemo.toml.
func (m *Manifest) Save(dir string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), buf.Bytes(), 0644)
}

// Find searches upward from startDir for embeddemo.toml and returns the
// directory that holds it.
func Find(startDir string) (string, *Manifest, error) {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			m, err := Load(dir)
			return dir, m, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, fmt.Errorf("%w (searched upward from %s)", ErrNoManifest, startDir)
}

// Default returns the manifest written by `embeddemo init`.
func Default(name string) *Manifest {
	return &Manifest{
		Project: ProjectMeta{
			Name:        name,
			Version:     "0.1.0",
			DefaultEnvs: []string{"uno"},
		},
		Build: BuildConfig{OutputDir: "build"},
		Tools: []Tool{{Name: "sample_tool", Package: "./cmd/sample_tool"}},
		Envs: []Env{{
			Name:    "uno",
			Target:  "arduino",
			Package: "./firmware/looper",
			Format:  "elf",
			Baud:    9600,
		}},
	}
}

// ── Lookups ───────────────────────────────────────────────────────────────────

// Tool returns the [[tool]] with the given name.
func (m *Manifest) Tool(name string) (*Tool, error) {
	for i := range m.Tools {
		if m.Tools[i].Name == name {
			return &m.Tools[i], nil
		}
	}
	return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownTool, name, strings.Join(m.ToolNames(), ", "))
}

// ToolNames lists tool names in declaration order.
func (m *Manifest) ToolNames() []string {
	names := make([]string, len(m.Tools))
	for i, t := range m.Tools {
		names[i] = t.Name
	}
	return names
}

// ResolveEnv returns the named env, or the first default_envs entry when
// name is empty.
func (m *Manifest) ResolveEnv(name string) (*Env, error) {
	if name == "" {
		if len(m.Project.DefaultEnvs) == 0 {
			return nil, ErrNoEnvironment
		}
		name = m.Project.DefaultEnvs[0]
	}
	for i := range m.Envs {
		if m.Envs[i].Name == name {
			return &m.Envs[i], nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownEnvironment, name)
}

// OutputDir returns the build output directory for a project rooted at dir.
func (m *Manifest) OutputDir(dir string) string {
	if filepath.IsAbs(m.Build.OutputDir) {
		return m.Build.OutputDir
	}
	return filepath.Join(dir, m.Build.OutputDir)
}

// FirmwareDir is where an env's firmware lands: <output_dir>/<env>.
func (m *Manifest) FirmwareDir(dir string, env *Env) string {
	return filepath.Join(m.OutputDir(dir), env.Name)
}
