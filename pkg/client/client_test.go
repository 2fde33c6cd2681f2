package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/placement"
	"github.com/placement-tools/placementctl/pkg/server"
	"github.com/placement-tools/placementctl/pkg/version"
)

func int64p(n int64) *int64       { return &n }
func float64p(f float64) *float64 { return &f }

// newTestClient starts an in-memory placement service and returns a client
// pointed at it.
func newTestClient(t *testing.T, microversion string) (*Client, *server.Server) {
	t.Helper()

	s := server.New(server.WithName("placement-test"))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	opts := []Option{}
	if microversion != "" {
		opts = append(opts, WithMicroversion(version.MustParse(microversion)))
	}
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c, s
}

func createProvider(t *testing.T, c *Client) placement.ResourceProvider {
	t.Helper()
	rp, err := c.CreateResourceProvider(context.Background(), "test-rp", "")
	require.NoError(t, err)
	return rp
}

func TestNew(t *testing.T) {
	c, err := New("http://placement.example:8778/")
	require.NoError(t, err)
	assert.Equal(t, version.Min, c.Microversion())

	_, err = New("")
	require.Error(t, err)

	c, err = New("http://placement.example:8778", WithMicroversion(version.Version{Major: 1, Minor: 5}))
	require.NoError(t, err)
	assert.Equal(t, "1.5", c.Microversion().String())
}

func TestRequireFailsFastWithoutNetwork(t *testing.T) {
	// Endpoint points nowhere; a version failure must surface before any
	// connection attempt.
	c, err := New("http://127.0.0.1:1", WithMicroversion(version.Version{Major: 1, Minor: 0}))
	require.NoError(t, err)

	err = c.DeleteAllInventories(context.Background(), "some-uuid")
	require.Error(t, err)
	assert.Equal(t, placementerrors.ErrCodeVersionRequirement, placementerrors.CodeOf(err))
	assert.Equal(t,
		"Operation or argument is not supported with version 1.0; requires at least version 1.5",
		err.Error())

	_, err = c.ResolveAggregateMembers(context.Background(), "agg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least version 1.3")
}

func TestTransportError(t *testing.T) {
	c, err := New("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.ListResourceProviders(context.Background())
	require.Error(t, err)
	assert.Equal(t, placementerrors.ErrCodeTransport, placementerrors.CodeOf(err))
}

func TestSetAndListInventories(t *testing.T) {
	c, _ := newTestClient(t, "")
	rp := createProvider(t, c)
	ctx := context.Background()

	records, err := c.SetInventories(ctx, rp.UUID, map[string]placement.InventoryUpdate{
		"VCPU":      {Total: int64p(8), MaxUnit: int64p(4)},
		"MEMORY_MB": {Total: int64p(1024), Reserved: int64p(256)},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Sorted by class
	assert.Equal(t, "MEMORY_MB", records[0].ResourceClass)
	assert.Equal(t, "VCPU", records[1].ResourceClass)
	assert.Equal(t, int64(4), records[1].MaxUnit)
	assert.Equal(t, int64(256), records[0].Reserved)

	listed, err := c.ListInventories(ctx, rp.UUID)
	require.NoError(t, err)
	assert.Equal(t, records, listed)
}

func TestSetInventoriesFullReplace(t *testing.T) {
	c, _ := newTestClient(t, "")
	rp := createProvider(t, c)
	ctx := context.Background()

	_, err := c.SetInventories(ctx, rp.UUID, map[string]placement.InventoryUpdate{
		"DISK_GB": {Total: int64p(16)},
	})
	require.NoError(t, err)

	_, err = c.SetInventories(ctx, rp.UUID, map[string]placement.InventoryUpdate{
		"VCPU": {Total: int64p(32)},
	})
	require.NoError(t, err)

	records, err := c.ListInventories(ctx, rp.UUID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "VCPU", records[0].ResourceClass)
}

func TestSetInventoriesEmptyClears(t *testing.T) {
	c, _ := newTestClient(t, "")
	rp := createProvider(t, c)
	ctx := context.Background()

	_, err := c.SetInventories(ctx, rp.UUID, map[string]placement.InventoryUpdate{
		"DISK_GB": {Total: int64p(16)},
	})
	require.NoError(t, err)

	records, err := c.SetInventories(ctx, rp.UUID, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestShowInventoryNotFoundMessage(t *testing.T) {
	c, _ := newTestClient(t, "")
	rp := createProvider(t, c)

	_, err := c.ShowInventory(context.Background(), rp.UUID, "VCPU")
	require.Error(t, err)
	assert.Equal(t, placementerrors.ErrCodeNotFound, placementerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "No inventory of class VCPU for "+rp.UUID)
}

func TestDeleteInventoryNotFoundMessage(t *testing.T) {
	c, _ := newTestClient(t, "")
	rp := createProvider(t, c)

	err := c.DeleteInventory(context.Background(), rp.UUID, "VCPU")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No inventory of class VCPU found for delete")
}

func TestSetInventoriesConflictMessage(t *testing.T) {
	c, _ := newTestClient(t, "1.2")
	rp := createProvider(t, c)
	ctx := context.Background()

	require.NoError(t, c.CreateResourceClass(ctx, "CUSTOM_FOO"))

	_, err := c.SetInventories(ctx, rp.UUID, map[string]placement.InventoryUpdate{
		"CUSTOM_FOO": {Total: int64p(1)},
	})
	require.NoError(t, err)

	require.NoError(t, c.SetAllocations(ctx, "consumer-1", []placement.Allocation{
		{ProviderUUID: rp.UUID, Resources: map[string]int64{"CUSTOM_FOO": 1}},
	}))

	_, err = c.SetInventories(ctx, rp.UUID, map[string]placement.InventoryUpdate{
		"VCPU": {Total: int64p(8)},
	})
	require.Error(t, err)
	assert.Equal(t, placementerrors.ErrCodeConflict, placementerrors.CodeOf(err))
	assert.Contains(t, err.Error(),
		"update conflict: Inventory for 'CUSTOM_FOO' on resource provider '"+rp.UUID+"' in use. (HTTP 409).")
}

func TestUpdateInventoryClass(t *testing.T) {
	c, _ := newTestClient(t, "")
	rp := createProvider(t, c)
	ctx := context.Background()

	_, err := c.SetInventories(ctx, rp.UUID, map[string]placement.InventoryUpdate{
		"MEMORY_MB": {Total: int64p(16)},
		"VCPU":      {Total: int64p(32)},
	})
	require.NoError(t, err)

	rec, err := c.UpdateInventoryClass(ctx, rp.UUID, "MEMORY_MB", placement.InventoryUpdate{
		Total:    int64p(128),
		StepSize: int64p(16),
	})
	require.NoError(t, err)
	assert.Equal(t, "MEMORY_MB", rec.ResourceClass)
	assert.Equal(t, int64(128), rec.Total)
	assert.Equal(t, int64(16), rec.StepSize)

	records, err := c.ListInventories(ctx, rp.UUID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(32), records[1].Total)
}

func TestDeleteAllInventories(t *testing.T) {
	c, _ := newTestClient(t, "1.5")
	rp := createProvider(t, c)
	ctx := context.Background()

	_, err := c.SetInventories(ctx, rp.UUID, map[string]placement.InventoryUpdate{
		"VCPU": {Total: int64p(8)},
	})
	require.NoError(t, err)

	require.NoError(t, c.DeleteAllInventories(ctx, rp.UUID))

	records, err := c.ListInventories(ctx, rp.UUID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestResolveAggregateMembers(t *testing.T) {
	c, _ := newTestClient(t, "1.3")
	rp1 := createProvider(t, c)
	rp2 := createProvider(t, c)
	ctx := context.Background()

	require.NoError(t, c.SetAggregates(ctx, rp1.UUID, []string{"agg-1"}))
	require.NoError(t, c.SetAggregates(ctx, rp2.UUID, []string{"agg-1"}))

	members, err := c.ResolveAggregateMembers(ctx, "agg-1")
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = c.ResolveAggregateMembers(ctx, "agg-nonexistent")
	require.Error(t, err)
	assert.Equal(t, placementerrors.ErrCodeNotFound, placementerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "No resource providers found in aggregate with uuid agg-nonexistent")
}

func TestVocabulary(t *testing.T) {
	c, _ := newTestClient(t, "1.2")
	ctx := context.Background()

	vocab := c.Vocabulary(ctx)
	assert.True(t, vocab.Contains("VCPU"))
	assert.False(t, vocab.Contains("CUSTOM_FOO"))

	require.NoError(t, c.CreateResourceClass(ctx, "CUSTOM_FOO"))

	// Creation invalidates the cached vocabulary.
	vocab = c.Vocabulary(ctx)
	assert.True(t, vocab.Contains("CUSTOM_FOO"))
}

func TestVocabularyFallsBackToStandardBelowGate(t *testing.T) {
	c, _ := newTestClient(t, "1.0")

	vocab := c.Vocabulary(context.Background())
	assert.True(t, vocab.Contains("VCPU"))
	assert.False(t, vocab.Contains("CUSTOM_FOO"))
}

func TestUpdateInventoryClassFloatRatio(t *testing.T) {
	c, _ := newTestClient(t, "")
	rp := createProvider(t, c)

	rec, err := c.UpdateInventoryClass(context.Background(), rp.UUID, "DISK_GB", placement.InventoryUpdate{
		Total:           int64p(16),
		AllocationRatio: float64p(1.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1.5, rec.AllocationRatio)
}
