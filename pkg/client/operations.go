package client

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/placement"
	"github.com/placement-tools/placementctl/pkg/version"
)

// Operation names for version gating and error reporting.
const (
	OpDeleteAllInventories = "delete all inventories"
	OpAggregateMembers     = "resolve aggregate members"
	OpSetAggregates        = "set aggregates"
	OpResourceClasses      = "resource classes"
)

// minVersions is the declarative table of per-operation minimum
// microversions, checked before any network call. Operations absent from
// the table work at the base version.
var minVersions = map[string]version.Version{
	OpSetAggregates:        {Major: 1, Minor: 1},
	OpResourceClasses:      {Major: 1, Minor: 2},
	OpAggregateMembers:     {Major: 1, Minor: 3},
	OpDeleteAllInventories: {Major: 1, Minor: 5},
}

// Require fails fast when the client's microversion is below the minimum
// the named operation needs. No network traffic happens on failure.
func (c *Client) Require(op string) error {
	minimum, gated := minVersions[op]
	if !gated {
		return nil
	}
	return version.CheckRequirement(c.version, minimum)
}

type inventoriesPayload struct {
	Inventories map[string]placement.Inventory `json:"inventories"`
	Generation  int64                          `json:"resource_provider_generation"`
}

type inventoriesUpdatePayload struct {
	Inventories map[string]placement.InventoryUpdate `json:"inventories"`
	Generation  int64                                `json:"resource_provider_generation"`
}

type inventoryPayload struct {
	placement.Inventory
	Generation int64 `json:"resource_provider_generation"`
}

type inventoryUpdatePayload struct {
	placement.InventoryUpdate
	Generation int64 `json:"resource_provider_generation"`
}

// CreateResourceProvider registers a provider; uuid may be empty to let the
// service generate one.
func (c *Client) CreateResourceProvider(ctx context.Context, name, providerUUID string) (placement.ResourceProvider, error) {
	req := struct {
		Name string `json:"name"`
		UUID string `json:"uuid,omitempty"`
	}{Name: name, UUID: providerUUID}

	var rp placement.ResourceProvider
	if err := c.do(ctx, http.MethodPost, "/resource_providers", nil, req, &rp); err != nil {
		return placement.ResourceProvider{}, err
	}
	return rp, nil
}

// ListResourceProviders returns all providers known to the service.
func (c *Client) ListResourceProviders(ctx context.Context) ([]placement.ResourceProvider, error) {
	var resp struct {
		ResourceProviders []placement.ResourceProvider `json:"resource_providers"`
	}
	if err := c.do(ctx, http.MethodGet, "/resource_providers", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ResourceProviders, nil
}

// ResolveAggregateMembers returns the providers belonging to an aggregate.
// An unknown or empty aggregate is NotFound.
func (c *Client) ResolveAggregateMembers(ctx context.Context, aggregateUUID string) ([]placement.ResourceProvider, error) {
	if err := c.Require(OpAggregateMembers); err != nil {
		return nil, err
	}

	query := url.Values{"member_of": []string{"in:" + aggregateUUID}}
	var resp struct {
		ResourceProviders []placement.ResourceProvider `json:"resource_providers"`
	}
	if err := c.do(ctx, http.MethodGet, "/resource_providers", query, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.ResourceProviders) == 0 {
		return nil, placementerrors.Newf(placementerrors.ErrCodeNotFound,
			"No resource providers found in aggregate with uuid %s", aggregateUUID)
	}
	return resp.ResourceProviders, nil
}

// SetAggregates replaces a provider's aggregate membership.
func (c *Client) SetAggregates(ctx context.Context, providerUUID string, aggregates []string) error {
	if err := c.Require(OpSetAggregates); err != nil {
		return err
	}

	req := struct {
		Aggregates []string `json:"aggregates"`
	}{Aggregates: aggregates}
	return c.do(ctx, http.MethodPut, "/resource_providers/"+providerUUID+"/aggregates", nil, req, nil)
}

// ListInventories returns a provider's inventory rows sorted by resource
// class.
func (c *Client) ListInventories(ctx context.Context, providerUUID string) (placement.RecordList, error) {
	var resp inventoriesPayload
	if err := c.do(ctx, http.MethodGet, "/resource_providers/"+providerUUID+"/inventories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return recordsFromInventories(resp.Inventories, ""), nil
}

// ShowInventory returns one class's inventory on a provider.
func (c *Client) ShowInventory(ctx context.Context, providerUUID, class string) (placement.Inventory, error) {
	var resp inventoryPayload
	err := c.do(ctx, http.MethodGet,
		"/resource_providers/"+providerUUID+"/inventories/"+class, nil, nil, &resp)
	if placementerrors.IsCode(err, placementerrors.ErrCodeNotFound) {
		return placement.Inventory{}, placementerrors.Newf(placementerrors.ErrCodeNotFound,
			"No inventory of class %s for %s", class, providerUUID)
	}
	if err != nil {
		return placement.Inventory{}, err
	}
	return resp.Inventory, nil
}

// SetInventories replaces all of a provider's inventory records with
// exactly the submitted classes. The current generation is fetched first;
// a concurrent writer surfaces as a conflict.
func (c *Client) SetInventories(ctx context.Context, providerUUID string,
	updates map[string]placement.InventoryUpdate) (placement.RecordList, error) {

	var current inventoriesPayload
	if err := c.do(ctx, http.MethodGet,
		"/resource_providers/"+providerUUID+"/inventories", nil, nil, &current); err != nil {
		return nil, err
	}

	if updates == nil {
		updates = map[string]placement.InventoryUpdate{}
	}
	req := inventoriesUpdatePayload{Inventories: updates, Generation: current.Generation}

	var resp inventoriesPayload
	if err := c.do(ctx, http.MethodPut,
		"/resource_providers/"+providerUUID+"/inventories", nil, req, &resp); err != nil {
		return nil, err
	}
	return recordsFromInventories(resp.Inventories, ""), nil
}

// UpdateInventoryClass partially updates one class's inventory, merging
// only the explicitly given fields. Creating a class this way requires a
// total.
func (c *Client) UpdateInventoryClass(ctx context.Context, providerUUID, class string,
	update placement.InventoryUpdate) (placement.Record, error) {

	var current inventoriesPayload
	if err := c.do(ctx, http.MethodGet,
		"/resource_providers/"+providerUUID+"/inventories", nil, nil, &current); err != nil {
		return placement.Record{}, err
	}

	req := inventoryUpdatePayload{InventoryUpdate: update, Generation: current.Generation}
	var resp inventoryPayload
	if err := c.do(ctx, http.MethodPut,
		"/resource_providers/"+providerUUID+"/inventories/"+class, nil, req, &resp); err != nil {
		return placement.Record{}, err
	}
	return placement.Record{ResourceClass: class, Inventory: resp.Inventory}, nil
}

// DeleteInventory removes one class's inventory from a provider.
func (c *Client) DeleteInventory(ctx context.Context, providerUUID, class string) error {
	err := c.do(ctx, http.MethodDelete,
		"/resource_providers/"+providerUUID+"/inventories/"+class, nil, nil, nil)
	if placementerrors.IsCode(err, placementerrors.ErrCodeNotFound) {
		return placementerrors.Newf(placementerrors.ErrCodeNotFound,
			"No inventory of class %s found for delete", class)
	}
	return err
}

// DeleteAllInventories clears a provider's inventory entirely. Gated to
// microversion 1.5.
func (c *Client) DeleteAllInventories(ctx context.Context, providerUUID string) error {
	if err := c.Require(OpDeleteAllInventories); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete,
		"/resource_providers/"+providerUUID+"/inventories", nil, nil, nil)
}

// ListResourceClasses returns every resource class the service knows,
// standard and custom.
func (c *Client) ListResourceClasses(ctx context.Context) ([]string, error) {
	if err := c.Require(OpResourceClasses); err != nil {
		return nil, err
	}

	var resp struct {
		ResourceClasses []struct {
			Name string `json:"name"`
		} `json:"resource_classes"`
	}
	if err := c.do(ctx, http.MethodGet, "/resource_classes", nil, nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.ResourceClasses))
	for _, rc := range resp.ResourceClasses {
		names = append(names, rc.Name)
	}
	return names, nil
}

// CreateResourceClass registers a custom resource class.
func (c *Client) CreateResourceClass(ctx context.Context, name string) error {
	if err := c.Require(OpResourceClasses); err != nil {
		return err
	}
	c.vocabCache.Remove(c.endpoint)

	req := struct {
		Name string `json:"name"`
	}{Name: name}
	return c.do(ctx, http.MethodPost, "/resource_classes", nil, req, nil)
}

// Vocabulary returns the class vocabulary for validation: the standard
// classes plus whatever the service reports. When the service's class list
// is unreachable (e.g. the microversion predates it), the standard
// vocabulary alone is used. Resolved vocabularies are cached per endpoint.
func (c *Client) Vocabulary(ctx context.Context) placement.Vocabulary {
	if vocab, ok := c.vocabCache.Get(c.endpoint); ok {
		return vocab
	}

	classes, err := c.ListResourceClasses(ctx)
	if err != nil {
		return placement.NewVocabulary()
	}
	vocab := placement.NewVocabulary(classes...)
	c.vocabCache.Add(c.endpoint, vocab)
	return vocab
}

// SetAllocations replaces a consumer's allocations across providers.
func (c *Client) SetAllocations(ctx context.Context, consumerUUID string, allocs []placement.Allocation) error {
	type allocation struct {
		ResourceProvider struct {
			UUID string `json:"uuid"`
		} `json:"resource_provider"`
		Resources map[string]int64 `json:"resources"`
	}

	req := struct {
		Allocations []allocation `json:"allocations"`
	}{Allocations: make([]allocation, 0, len(allocs))}
	for _, a := range allocs {
		var wire allocation
		wire.ResourceProvider.UUID = a.ProviderUUID
		wire.Resources = a.Resources
		req.Allocations = append(req.Allocations, wire)
	}

	return c.do(ctx, http.MethodPut, "/allocations/"+consumerUUID, nil, req, nil)
}

func recordsFromInventories(inventories map[string]placement.Inventory, providerUUID string) placement.RecordList {
	records := make(placement.RecordList, 0, len(inventories))
	for class, inv := range inventories {
		records = append(records, placement.Record{
			ResourceClass:    class,
			Inventory:        inv,
			ResourceProvider: providerUUID,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ResourceClass < records[j].ResourceClass
	})
	return records
}
