package archetype

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/stackwright/stackwright/pkg/models"
)

// LoadDir reads additional archetype definitions from YAML files in dir
// and registers them with the catalog. Files are processed in name order
// so loading is deterministic. A missing directory is not an error.
// Built-in archetypes win on id collision.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read archetype dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		a, err := loadFile(path)
		if err != nil {
			return fmt.Errorf("load archetype %s: %w", name, err)
		}
		c.Add(a)
	}

	return nil
}

// loadFile parses and validates a single archetype definition.
func loadFile(path string) (models.Archetype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Archetype{}, err
	}

	var a models.Archetype
	if err := yaml.Unmarshal(data, &a); err != nil {
		return models.Archetype{}, fmt.Errorf("parse yaml: %w", err)
	}

	if err := validate(a); err != nil {
		return models.Archetype{}, err
	}

	return a, nil
}

// validate checks the structural requirements on a loaded archetype.
func validate(a models.Archetype) error {
	if a.ID == "" {
		return fmt.Errorf("archetype id is required")
	}
	if a.ID == CustomID {
		return fmt.Errorf("archetype id %q is reserved", CustomID)
	}
	if a.Name == "" {
		return fmt.Errorf("archetype %q: name is required", a.ID)
	}
	if len(a.Phases) == 0 {
		return fmt.Errorf("archetype %q: at least one phase is required", a.ID)
	}

	seen := make(map[string]bool, len(a.Phases))
	for i, p := range a.Phases {
		if p.ID == "" {
			return fmt.Errorf("archetype %q: phase %d has no id", a.ID, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("archetype %q: duplicate phase id %q", a.ID, p.ID)
		}
		seen[p.ID] = true
		if p.Kind != "" && !p.Kind.Valid() {
			return fmt.Errorf("archetype %q: phase %q has unknown kind %q", a.ID, p.ID, p.Kind)
		}
	}

	return nil
}
