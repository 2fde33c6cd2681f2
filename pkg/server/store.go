package server

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/placement"
)

// Store is the in-memory placement state: resource providers with their
// inventories and generations, aggregate membership, custom resource
// classes, and allocations. All methods are safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	providers   map[string]*providerState
	classes     map[string]struct{}
	allocations map[string]map[string]map[string]int64 // consumer -> rp -> class -> amount
	usages      map[string]map[string]int64            // rp -> class -> amount in use
}

type providerState struct {
	uuid        string
	name        string
	generation  int64
	inventories map[string]placement.Inventory
	aggregates  map[string]struct{}
}

// NewStore creates a Store pre-populated with the standard resource
// classes.
func NewStore() *Store {
	s := &Store{
		providers:   map[string]*providerState{},
		classes:     map[string]struct{}{},
		allocations: map[string]map[string]map[string]int64{},
		usages:      map[string]map[string]int64{},
	}
	for _, c := range placement.StandardClasses {
		s.classes[c] = struct{}{}
	}
	return s
}

// CreateProvider registers a resource provider. A zero uuid is generated.
func (s *Store) CreateProvider(name, providerUUID string) (placement.ResourceProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if providerUUID == "" {
		providerUUID = uuid.New().String()
	}
	if _, exists := s.providers[providerUUID]; exists {
		return placement.ResourceProvider{}, placementerrors.Newf(placementerrors.ErrCodeConflict,
			"resource provider %s already exists", providerUUID)
	}

	p := &providerState{
		uuid:        providerUUID,
		name:        name,
		inventories: map[string]placement.Inventory{},
		aggregates:  map[string]struct{}{},
	}
	s.providers[providerUUID] = p
	return p.public(), nil
}

// ListProviders returns all providers sorted by uuid.
func (s *Store) ListProviders() []placement.ResourceProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]placement.ResourceProvider, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p.public())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out
}

// ProvidersInAggregate returns the members of an aggregate sorted by uuid.
// An unknown or empty aggregate yields an empty slice; the distinction does
// not exist server-side.
func (s *Store) ProvidersInAggregate(aggregate string) []placement.ResourceProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []placement.ResourceProvider
	for _, p := range s.providers {
		if _, ok := p.aggregates[aggregate]; ok {
			out = append(out, p.public())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out
}

// SetAggregates replaces a provider's aggregate membership.
func (s *Store) SetAggregates(providerUUID string, aggregates []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.provider(providerUUID)
	if err != nil {
		return err
	}
	p.aggregates = map[string]struct{}{}
	for _, agg := range aggregates {
		p.aggregates[agg] = struct{}{}
	}
	return nil
}

// Aggregates returns a provider's aggregate uuids sorted.
func (s *Store) Aggregates(providerUUID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.provider(providerUUID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(p.aggregates))
	for agg := range p.aggregates {
		out = append(out, agg)
	}
	sort.Strings(out)
	return out, nil
}

// ListInventories returns a provider's inventories and current generation.
func (s *Store) ListInventories(providerUUID string) (map[string]placement.Inventory, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.provider(providerUUID)
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]placement.Inventory, len(p.inventories))
	for class, inv := range p.inventories {
		out[class] = inv
	}
	return out, p.generation, nil
}

// GetInventory returns one class's inventory on a provider.
func (s *Store) GetInventory(providerUUID, class string) (placement.Inventory, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.provider(providerUUID)
	if err != nil {
		return placement.Inventory{}, 0, err
	}
	inv, ok := p.inventories[class]
	if !ok {
		return placement.Inventory{}, 0, placementerrors.Newf(placementerrors.ErrCodeNotFound,
			"resource provider %s has no inventory of class %s", providerUUID, class)
	}
	return inv, p.generation, nil
}

// ReplaceInventories replaces all of a provider's inventory records with
// exactly the submitted classes. Classes present before but omitted now are
// deleted, unless an allocation exists against one, in which case nothing
// changes and a conflict is returned. Defaults fill unspecified fields.
func (s *Store) ReplaceInventories(providerUUID string, generation int64,
	updates map[string]placement.InventoryUpdate) (map[string]placement.Inventory, int64, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.provider(providerUUID)
	if err != nil {
		return nil, 0, err
	}
	if generation != p.generation {
		return nil, 0, placementerrors.Newf(placementerrors.ErrCodeConflict,
			"resource provider generation conflict: expected %d, got %d", p.generation, generation)
	}

	next := make(map[string]placement.Inventory, len(updates))
	for class, u := range updates {
		if _, ok := s.classes[class]; !ok {
			return nil, 0, placementerrors.Newf(placementerrors.ErrCodeInvalidRequest,
				"unknown resource class %s", class)
		}
		if !u.HasTotal() {
			return nil, 0, placementerrors.Newf(placementerrors.ErrCodeInvalidRequest,
				"inventory for class %s requires total", class)
		}
		inv := u.ApplyTo(placement.DefaultInventory())
		if err := inv.Validate(); err != nil {
			return nil, 0, placementerrors.Wrap(placementerrors.ErrCodeInvalidRequest,
				"invalid inventory for class "+class, err)
		}
		next[class] = inv
	}

	// A class vanishing from the set is a delete; deletes of in-use
	// classes fail the whole request before anything is applied.
	for class := range p.inventories {
		if _, kept := next[class]; kept {
			continue
		}
		if s.classInUse(providerUUID, class) {
			inventoryConflictsTotal.Inc()
			return nil, 0, placementerrors.Newf(placementerrors.ErrCodeConflict,
				"update conflict: Inventory for '%s' on resource provider '%s' in use.", class, providerUUID)
		}
	}

	p.inventories = next
	p.generation++
	return copyInventories(next), p.generation, nil
}

// UpdateInventory merges explicitly given fields into one class's
// inventory. Creating a class this way requires a total.
func (s *Store) UpdateInventory(providerUUID, class string, generation int64,
	update placement.InventoryUpdate) (placement.Inventory, int64, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.provider(providerUUID)
	if err != nil {
		return placement.Inventory{}, 0, err
	}
	if generation != p.generation {
		return placement.Inventory{}, 0, placementerrors.Newf(placementerrors.ErrCodeConflict,
			"resource provider generation conflict: expected %d, got %d", p.generation, generation)
	}
	if _, ok := s.classes[class]; !ok {
		return placement.Inventory{}, 0, placementerrors.Newf(placementerrors.ErrCodeInvalidRequest,
			"unknown resource class %s", class)
	}

	base, exists := p.inventories[class]
	if !exists {
		if !update.HasTotal() {
			return placement.Inventory{}, 0, placementerrors.Newf(placementerrors.ErrCodeInvalidRequest,
				"inventory for class %s requires total", class)
		}
		base = placement.DefaultInventory()
	}

	inv := update.ApplyTo(base)
	if err := inv.Validate(); err != nil {
		return placement.Inventory{}, 0, placementerrors.Wrap(placementerrors.ErrCodeInvalidRequest,
			"invalid inventory for class "+class, err)
	}

	p.inventories[class] = inv
	p.generation++
	return inv, p.generation, nil
}

// DeleteInventory removes one class's inventory from a provider.
func (s *Store) DeleteInventory(providerUUID, class string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.provider(providerUUID)
	if err != nil {
		return err
	}
	if _, ok := p.inventories[class]; !ok {
		return placementerrors.Newf(placementerrors.ErrCodeNotFound,
			"resource provider %s has no inventory of class %s", providerUUID, class)
	}
	if s.classInUse(providerUUID, class) {
		inventoryConflictsTotal.Inc()
		return placementerrors.Newf(placementerrors.ErrCodeConflict,
			"update conflict: Inventory for '%s' on resource provider '%s' in use.", class, providerUUID)
	}
	delete(p.inventories, class)
	p.generation++
	return nil
}

// DeleteAllInventories clears a provider's inventory entirely.
func (s *Store) DeleteAllInventories(providerUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.provider(providerUUID)
	if err != nil {
		return err
	}
	for class := range p.inventories {
		if s.classInUse(providerUUID, class) {
			inventoryConflictsTotal.Inc()
			return placementerrors.Newf(placementerrors.ErrCodeConflict,
				"update conflict: Inventory for '%s' on resource provider '%s' in use.", class, providerUUID)
		}
	}
	p.inventories = map[string]placement.Inventory{}
	p.generation++
	return nil
}

// CreateClass registers a custom resource class. Creating an existing class
// is a no-op, matching the idempotent PUT the real service offers.
func (s *Store) CreateClass(name string) error {
	if !placement.ValidCustomClassName(name) {
		return placementerrors.Newf(placementerrors.ErrCodeInvalidRequest,
			"invalid resource class name %q: must match CUSTOM_[A-Z0-9_]+", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[name] = struct{}{}
	return nil
}

// ListClasses returns every known resource class sorted.
func (s *Store) ListClasses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.classes))
	for c := range s.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SetAllocations replaces a consumer's allocations. Every referenced
// provider must have inventory of the allocated class.
func (s *Store) SetAllocations(consumer string, allocs []placement.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, alloc := range allocs {
		p, err := s.provider(alloc.ProviderUUID)
		if err != nil {
			return err
		}
		for class := range alloc.Resources {
			if _, ok := p.inventories[class]; !ok {
				return placementerrors.Newf(placementerrors.ErrCodeConflict,
					"resource provider %s has no inventory of class %s to allocate from",
					alloc.ProviderUUID, class)
			}
		}
	}

	// Retract the consumer's previous claims before applying the new set.
	for rp, classes := range s.allocations[consumer] {
		for class, amount := range classes {
			s.addUsage(rp, class, -amount)
		}
	}

	next := map[string]map[string]int64{}
	for _, alloc := range allocs {
		classes := next[alloc.ProviderUUID]
		if classes == nil {
			classes = map[string]int64{}
			next[alloc.ProviderUUID] = classes
		}
		for class, amount := range alloc.Resources {
			classes[class] += amount
			s.addUsage(alloc.ProviderUUID, class, amount)
		}
	}
	s.allocations[consumer] = next
	return nil
}

// provider looks up a provider; callers hold the lock.
func (s *Store) provider(providerUUID string) (*providerState, error) {
	p, ok := s.providers[providerUUID]
	if !ok {
		return nil, placementerrors.Newf(placementerrors.ErrCodeNotFound,
			"resource provider %s not found", providerUUID)
	}
	return p, nil
}

func (s *Store) classInUse(providerUUID, class string) bool {
	return s.usages[providerUUID][class] > 0
}

func (s *Store) addUsage(providerUUID, class string, delta int64) {
	classes := s.usages[providerUUID]
	if classes == nil {
		classes = map[string]int64{}
		s.usages[providerUUID] = classes
	}
	classes[class] += delta
	if classes[class] <= 0 {
		delete(classes, class)
	}
}

func (p *providerState) public() placement.ResourceProvider {
	return placement.ResourceProvider{UUID: p.uuid, Name: p.name, Generation: p.generation}
}

func copyInventories(in map[string]placement.Inventory) map[string]placement.Inventory {
	out := make(map[string]placement.Inventory, len(in))
	for class, inv := range in {
		out[class] = inv
	}
	return out
}
