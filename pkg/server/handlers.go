package server

import (
	"encoding/json"
	"net/http"
	"strings"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/placement"
	"github.com/placement-tools/placementctl/pkg/serializer"
	"github.com/placement-tools/placementctl/pkg/version"
)

// Microversion gates enforced server-side. The client pre-flights the same
// table, so hitting these normally indicates a non-placementctl caller.
var (
	minVersionAggregates      = version.Version{Major: 1, Minor: 1}
	minVersionResourceClasses = version.Version{Major: 1, Minor: 2}
	minVersionMemberOf        = version.Version{Major: 1, Minor: 3}
	minVersionDeleteAll       = version.Version{Major: 1, Minor: 5}
)

// inventoriesPayload is the wire shape for provider-level inventory
// reads and full-replace writes.
type inventoriesPayload struct {
	Inventories map[string]placement.Inventory `json:"inventories"`
	Generation  int64                          `json:"resource_provider_generation"`
}

type inventoriesUpdatePayload struct {
	Inventories map[string]placement.InventoryUpdate `json:"inventories"`
	Generation  int64                                `json:"resource_provider_generation"`
}

// inventoryPayload is the wire shape for single-class reads and writes.
type inventoryPayload struct {
	placement.Inventory
	Generation int64 `json:"resource_provider_generation"`
}

type inventoryUpdatePayload struct {
	placement.InventoryUpdate
	Generation int64 `json:"resource_provider_generation"`
}

func (s *Server) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		UUID string `json:"uuid"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	rp, err := s.store.CreateProvider(req.Name, req.UUID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	serializer.RespondJSON(w, http.StatusCreated, rp)
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	memberOf := r.URL.Query().Get("member_of")
	if memberOf == "" {
		serializer.RespondJSON(w, http.StatusOK, struct {
			ResourceProviders []placement.ResourceProvider `json:"resource_providers"`
		}{s.store.ListProviders()})
		return
	}

	if err := version.CheckRequirement(microversionFrom(r.Context()), minVersionMemberOf); err != nil {
		WriteError(w, r, err)
		return
	}

	// member_of uses the "in:uuid[,uuid]" form; a bare uuid is accepted too.
	aggregates := strings.Split(strings.TrimPrefix(memberOf, "in:"), ",")
	seen := map[string]struct{}{}
	var providers []placement.ResourceProvider
	for _, agg := range aggregates {
		for _, rp := range s.store.ProvidersInAggregate(agg) {
			if _, dup := seen[rp.UUID]; dup {
				continue
			}
			seen[rp.UUID] = struct{}{}
			providers = append(providers, rp)
		}
	}
	if providers == nil {
		providers = []placement.ResourceProvider{}
	}
	serializer.RespondJSON(w, http.StatusOK, struct {
		ResourceProviders []placement.ResourceProvider `json:"resource_providers"`
	}{providers})
}

func (s *Server) handleGetAggregates(w http.ResponseWriter, r *http.Request) {
	if err := version.CheckRequirement(microversionFrom(r.Context()), minVersionAggregates); err != nil {
		WriteError(w, r, err)
		return
	}

	aggs, err := s.store.Aggregates(r.PathValue("uuid"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, struct {
		Aggregates []string `json:"aggregates"`
	}{aggs})
}

func (s *Server) handleSetAggregates(w http.ResponseWriter, r *http.Request) {
	if err := version.CheckRequirement(microversionFrom(r.Context()), minVersionAggregates); err != nil {
		WriteError(w, r, err)
		return
	}

	var req struct {
		Aggregates []string `json:"aggregates"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := s.store.SetAggregates(r.PathValue("uuid"), req.Aggregates); err != nil {
		WriteError(w, r, err)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, req)
}

func (s *Server) handleListInventories(w http.ResponseWriter, r *http.Request) {
	inventories, generation, err := s.store.ListInventories(r.PathValue("uuid"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, inventoriesPayload{
		Inventories: inventories,
		Generation:  generation,
	})
}

func (s *Server) handleReplaceInventories(w http.ResponseWriter, r *http.Request) {
	var req inventoriesUpdatePayload
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.Inventories == nil {
		req.Inventories = map[string]placement.InventoryUpdate{}
	}

	inventories, generation, err := s.store.ReplaceInventories(r.PathValue("uuid"), req.Generation, req.Inventories)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	inventoryWritesTotal.WithLabelValues("replace").Inc()
	serializer.RespondJSON(w, http.StatusOK, inventoriesPayload{
		Inventories: inventories,
		Generation:  generation,
	})
}

func (s *Server) handleDeleteAllInventories(w http.ResponseWriter, r *http.Request) {
	if err := version.CheckRequirement(microversionFrom(r.Context()), minVersionDeleteAll); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := s.store.DeleteAllInventories(r.PathValue("uuid")); err != nil {
		WriteError(w, r, err)
		return
	}
	inventoryWritesTotal.WithLabelValues("delete_all").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	inv, generation, err := s.store.GetInventory(r.PathValue("uuid"), r.PathValue("class"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, inventoryPayload{
		Inventory:  inv,
		Generation: generation,
	})
}

func (s *Server) handleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryUpdatePayload
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	inv, generation, err := s.store.UpdateInventory(
		r.PathValue("uuid"), r.PathValue("class"), req.Generation, req.InventoryUpdate)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	inventoryWritesTotal.WithLabelValues("update").Inc()
	serializer.RespondJSON(w, http.StatusOK, inventoryPayload{
		Inventory:  inv,
		Generation: generation,
	})
}

func (s *Server) handleDeleteInventory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteInventory(r.PathValue("uuid"), r.PathValue("class")); err != nil {
		WriteError(w, r, err)
		return
	}
	inventoryWritesTotal.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	if err := version.CheckRequirement(microversionFrom(r.Context()), minVersionResourceClasses); err != nil {
		WriteError(w, r, err)
		return
	}

	classes := s.store.ListClasses()
	type resourceClass struct {
		Name string `json:"name"`
	}
	out := make([]resourceClass, 0, len(classes))
	for _, c := range classes {
		out = append(out, resourceClass{Name: c})
	}
	serializer.RespondJSON(w, http.StatusOK, struct {
		ResourceClasses []resourceClass `json:"resource_classes"`
	}{out})
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	if err := version.CheckRequirement(microversionFrom(r.Context()), minVersionResourceClasses); err != nil {
		WriteError(w, r, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := s.store.CreateClass(req.Name); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleSetAllocations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Allocations []struct {
			ResourceProvider struct {
				UUID string `json:"uuid"`
			} `json:"resource_provider"`
			Resources map[string]int64 `json:"resources"`
		} `json:"allocations"`
	}
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	allocs := make([]placement.Allocation, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		allocs = append(allocs, placement.Allocation{
			ProviderUUID: a.ResourceProvider.UUID,
			Resources:    a.Resources,
		})
	}
	if err := s.store.SetAllocations(r.PathValue("consumer"), allocs); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return placementerrors.Wrap(placementerrors.ErrCodeInvalidRequest, "invalid request body", err)
	}
	return nil
}
