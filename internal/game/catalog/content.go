package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProfessionDef is the YAML form of a Profession.
type ProfessionDef struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	DamageBase     int    `yaml:"damage_base"`
	ProtectionBase int    `yaml:"protection_base"`
	HealthBase     int    `yaml:"health_base"`
}

// RaceDef is the YAML form of a Race. Professions reference ProfessionDef names.
type RaceDef struct {
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description"`
	DamageModifier     float64  `yaml:"damage_modifier"`
	ProtectionModifier float64  `yaml:"protection_modifier"`
	HealthModifier     float64  `yaml:"health_modifier"`
	Professions        []string `yaml:"professions"`
}

// ItemDef is the YAML form of an Item. The slot is derived from Type.
type ItemDef struct {
	Name            string   `yaml:"name"`
	Price           int      `yaml:"price"`
	LevelRequired   int      `yaml:"level_required"`
	Type            ItemType `yaml:"type"`
	BonusDamage     int      `yaml:"bonus_damage"`
	BonusProtection int      `yaml:"bonus_protection"`
	BonusHealth     int      `yaml:"bonus_health"`
	Professions     []string `yaml:"professions"`
}

// Content is a complete, cross-validated set of reference data.
type Content struct {
	Professions []*ProfessionDef
	Races       []*RaceDef
	Items       []*ItemDef
}

// Validate checks that the ProfessionDef satisfies its invariants.
func (d *ProfessionDef) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.DamageBase < 0 || d.ProtectionBase < 0 || d.HealthBase < 0 {
		errs = append(errs, errors.New("base values must be >= 0"))
	}
	return errors.Join(errs...)
}

// Validate checks that the RaceDef satisfies its invariants.
func (d *RaceDef) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.DamageModifier < 0 || d.ProtectionModifier < 0 || d.HealthModifier < 0 {
		errs = append(errs, errors.New("modifiers must be >= 0"))
	}
	return errors.Join(errs...)
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Postcondition: LevelRequired defaults to 1 when unset.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.Price < 0 {
		errs = append(errs, errors.New("price must be >= 0"))
	}
	if d.LevelRequired == 0 {
		d.LevelRequired = 1
	}
	if d.LevelRequired < 1 {
		errs = append(errs, errors.New("level_required must be >= 1"))
	}
	if _, ok := SlotFor(d.Type); !ok {
		errs = append(errs, fmt.Errorf("unknown item type %q", d.Type))
	}
	if d.BonusDamage < 0 || d.BonusProtection < 0 || d.BonusHealth < 0 {
		errs = append(errs, errors.New("bonuses must be >= 0"))
	}
	return errors.Join(errs...)
}

// Slot returns the slot derived from the item type.
func (d *ItemDef) Slot() Slot {
	s, _ := SlotFor(d.Type)
	return s
}

// Validate checks every definition and the references between them.
//
// Postcondition: returns nil iff names are unique per kind, every definition is
// valid, and every profession reference resolves.
func (c *Content) Validate() error {
	var errs []error
	professions := make(map[string]bool, len(c.Professions))
	for _, p := range c.Professions {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("profession %q: %w", p.Name, err))
		}
		if professions[p.Name] {
			errs = append(errs, fmt.Errorf("profession %q defined twice", p.Name))
		}
		professions[p.Name] = true
	}
	races := make(map[string]bool, len(c.Races))
	for _, r := range c.Races {
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("race %q: %w", r.Name, err))
		}
		if races[r.Name] {
			errs = append(errs, fmt.Errorf("race %q defined twice", r.Name))
		}
		races[r.Name] = true
		for _, p := range r.Professions {
			if !professions[p] {
				errs = append(errs, fmt.Errorf("race %q references unknown profession %q", r.Name, p))
			}
		}
	}
	items := make(map[string]bool, len(c.Items))
	for _, it := range c.Items {
		if err := it.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("item %q: %w", it.Name, err))
		}
		if items[it.Name] {
			errs = append(errs, fmt.Errorf("item %q defined twice", it.Name))
		}
		items[it.Name] = true
		for _, p := range it.Professions {
			if !professions[p] {
				errs = append(errs, fmt.Errorf("item %q references unknown profession %q", it.Name, p))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("content validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadContent reads professions.yaml, races.yaml and items.yaml from dir and
// validates the result.
//
// Precondition: dir is a readable directory containing the three files.
// Postcondition: returns validated Content or the first encountered error.
func LoadContent(dir string) (*Content, error) {
	var c Content
	files := []struct {
		name string
		out  any
	}{
		{"professions.yaml", &c.Professions},
		{"races.yaml", &c.Races},
		{"items.yaml", &c.Items},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadContent: cannot read file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, f.out); err != nil {
			return nil, fmt.Errorf("LoadContent: cannot parse file %q: %w", path, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
