package dice

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named dice pool loaded from YAML.
type Preset struct {
	Name        string `yaml:"name"`
	Dice        string `yaml:"dice"`    // pool expression, e.g. "2d6"
	Ordered     bool   `yaml:"ordered"` // false = dice indistinguishable
	Description string `yaml:"description"`

	pool Pool
}

// Pool returns the parsed pool.
//
// Precondition: p was returned by a Catalog.
func (p *Preset) Pool() Pool { return p.pool }

// presetFile is the on-disk layout: a list of presets under one key.
type presetFile struct {
	Presets []*Preset `yaml:"presets"`
}

// Catalog holds presets keyed by name.
type Catalog struct {
	presets map[string]*Preset
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{presets: make(map[string]*Preset)}
}

// Add validates p and registers it.
//
// Postcondition: Returns an error if p is nil, p.Name is empty or taken, or p.Dice does not parse.
func (c *Catalog) Add(p *Preset) error {
	if p == nil {
		return errors.New("preset: nil entry")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("preset: name must not be empty")
	}
	if _, ok := c.presets[p.Name]; ok {
		return fmt.Errorf("preset: duplicate name %q", p.Name)
	}
	pool, err := Parse(p.Dice)
	if err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	p.pool = pool
	c.presets[p.Name] = p
	return nil
}

// Get returns the preset called name, or (nil, false) if not found.
func (c *Catalog) Get(name string) (*Preset, bool) {
	p, ok := c.presets[name]
	return p, ok
}

// Names returns all preset names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.presets))
	for n := range c.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of presets.
func (c *Catalog) Len() int { return len(c.presets) }

// ReadPresets decodes a preset document from r into c. Unknown fields are rejected.
func (c *Catalog) ReadPresets(r io.Reader) error {
	var f presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding presets: %w", err)
	}
	for i, p := range f.Presets {
		if p == nil {
			return fmt.Errorf("preset %d: empty entry", i)
		}
		if err := c.Add(p); err != nil {
			return err
		}
	}
	return nil
}

// LoadPresets reads one preset YAML file.
//
// Precondition: path must be a readable YAML file.
// Postcondition: Returns a populated Catalog or an error.
func LoadPresets(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	c := NewCatalog()
	if err := c.ReadPresets(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return c, nil
}

// LoadPresetsFromDir reads every *.yaml file in dir into one Catalog. Names
// must be unique across files.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Catalog, or an error if any file fails to parse.
func LoadPresetsFromDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading preset dir %q: %w", dir, err)
	}
	c := NewCatalog()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		if err := c.ReadPresets(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
	}
	return c, nil
}
