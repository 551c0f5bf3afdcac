// Package bank loads challenge definitions from YAML and JSON
// files and performs structural validation before any network
// I/O takes place.
package bank

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"digital.vasic.labcheck/pkg/challenge"
)

// Bank manages collections of challenge definitions loaded from
// files.
type Bank struct {
	mu          sync.RWMutex
	steps       StepValidator
	definitions map[challenge.ID]*challenge.Definition
	origins     map[challenge.ID]string
	sources     []string
}

// New creates a new empty Bank validating steps against steps.
func New(steps StepValidator) *Bank {
	return &Bank{
		steps:       steps,
		definitions: make(map[challenge.ID]*challenge.Definition),
		origins:     make(map[challenge.ID]string),
	}
}

// LoadFile loads a single definition or a bank file. Nothing is
// added when any challenge in the file is invalid.
func (b *Bank) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read bank file %s: %w", path, err)
	}
	f := format(path)
	if f == "" {
		return fmt.Errorf("unsupported bank file %s", path)
	}
	raw, err := Parse(data, f)
	if err != nil {
		return &StructuralError{
			Source:     path,
			Violations: []ValidationError{{Field: f, Message: err.Error(), Index: -1}},
		}
	}

	var defs []*challenge.Definition
	if isBankFile(raw) {
		if errs := validateBank(raw, b.steps); len(errs) > 0 {
			return &StructuralError{Source: path, Violations: errs}
		}
		file, err := decodeBankFile(raw)
		if err != nil {
			return fmt.Errorf("parse bank file %s: %w", path, err)
		}
		for i, ch := range file.Challenges {
			def, err := toDefinition(ch)
			if err != nil {
				return fmt.Errorf("%s: challenges[%d]: %w", path, i, err)
			}
			defs = append(defs, def)
		}
	} else {
		def, err := Decode(raw, b.steps, path)
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, def := range defs {
		if origin, exists := b.origins[def.ID]; exists {
			return fmt.Errorf(
				"duplicate challenge ID %s in %s (already loaded from %s)",
				def.ID, path, origin,
			)
		}
	}
	for _, def := range defs {
		b.definitions[def.ID] = def
		b.origins[def.ID] = path
	}
	b.sources = append(b.sources, path)
	return nil
}

// LoadDir loads all .json, .yaml and .yml files from a directory.
// It does not recurse into subdirectories.
func (b *Bank) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read bank directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || format(entry.Name()) == "" {
			continue
		}
		if err := b.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a challenge definition by ID.
func (b *Bank) Get(id challenge.ID) (*challenge.Definition, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	def, ok := b.definitions[id]
	return def, ok
}

// All returns all loaded definitions sorted by ID.
func (b *Bank) All() []*challenge.Definition {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]*challenge.Definition, 0, len(b.definitions))
	for _, def := range b.definitions {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// ByCategory returns definitions filtered by category, sorted by
// ID.
func (b *Bank) ByCategory(category string) []*challenge.Definition {
	var result []*challenge.Definition
	for _, def := range b.All() {
		if def.Category == category {
			result = append(result, def)
		}
	}
	return result
}

// Count returns the number of loaded definitions.
func (b *Bank) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.definitions)
}

// Sources returns the list of loaded file paths.
func (b *Bank) Sources() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]string, len(b.sources))
	copy(result, b.sources)
	return result
}
