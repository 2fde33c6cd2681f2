package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/placement-tools/placementctl/pkg/placement"
)

// Seed describes initial placement state for `placementctl serve --seed`.
type Seed struct {
	ResourceClasses []string       `yaml:"resource_classes"`
	Providers       []SeedProvider `yaml:"providers"`
}

// SeedProvider is one pre-created resource provider.
type SeedProvider struct {
	Name        string                         `yaml:"name"`
	UUID        string                         `yaml:"uuid"`
	Aggregates  []string                       `yaml:"aggregates"`
	Inventories map[string]placement.Inventory `yaml:"inventories"`
}

// NewStoreFromSeedFile builds a Store pre-populated from a YAML seed file.
func NewStoreFromSeedFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %q: %w", path, err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %q: %w", path, err)
	}
	return NewStoreFromSeed(&seed)
}

// NewStoreFromSeed builds a Store pre-populated from a Seed.
func NewStoreFromSeed(seed *Seed) (*Store, error) {
	store := NewStore()

	for _, class := range seed.ResourceClasses {
		if err := store.CreateClass(class); err != nil {
			return nil, err
		}
	}

	for _, p := range seed.Providers {
		rp, err := store.CreateProvider(p.Name, p.UUID)
		if err != nil {
			return nil, err
		}
		if len(p.Aggregates) > 0 {
			if err := store.SetAggregates(rp.UUID, p.Aggregates); err != nil {
				return nil, err
			}
		}
		if len(p.Inventories) > 0 {
			updates := make(map[string]placement.InventoryUpdate, len(p.Inventories))
			for class, inv := range p.Inventories {
				updates[class] = updateFromInventory(inv)
			}
			if _, _, err := store.ReplaceInventories(rp.UUID, 0, updates); err != nil {
				return nil, err
			}
		}
	}

	return store, nil
}

// updateFromInventory converts a fully specified seed inventory into an
// update, so zero-valued optional fields still fall back to defaults.
func updateFromInventory(inv placement.Inventory) placement.InventoryUpdate {
	u := placement.InventoryUpdate{}
	u.Total = &inv.Total
	if inv.Reserved != 0 {
		v := inv.Reserved
		u.Reserved = &v
	}
	if inv.MinUnit != 0 {
		v := inv.MinUnit
		u.MinUnit = &v
	}
	if inv.MaxUnit != 0 {
		v := inv.MaxUnit
		u.MaxUnit = &v
	}
	if inv.StepSize != 0 {
		v := inv.StepSize
		u.StepSize = &v
	}
	if inv.AllocationRatio != 0 {
		v := inv.AllocationRatio
		u.AllocationRatio = &v
	}
	return u
}
