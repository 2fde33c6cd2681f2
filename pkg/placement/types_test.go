package placement

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(n int64) *int64       { return &n }
func float64p(f float64) *float64 { return &f }

func TestApplyToDefaults(t *testing.T) {
	u := InventoryUpdate{Total: int64p(8), MaxUnit: int64p(4)}
	inv := u.ApplyTo(DefaultInventory())

	assert.Equal(t, Inventory{
		Total:           8,
		Reserved:        0,
		MinUnit:         1,
		MaxUnit:         4,
		StepSize:        1,
		AllocationRatio: 1.0,
	}, inv)
}

func TestApplyToMergesOntoExisting(t *testing.T) {
	base := Inventory{Total: 16, Reserved: 2, MinUnit: 1, MaxUnit: 16, StepSize: 1, AllocationRatio: 2.0}
	u := InventoryUpdate{Total: int64p(128), StepSize: int64p(16)}
	inv := u.ApplyTo(base)

	assert.Equal(t, int64(128), inv.Total)
	assert.Equal(t, int64(16), inv.StepSize)
	assert.Equal(t, int64(2), inv.Reserved)
	assert.Equal(t, 2.0, inv.AllocationRatio)
}

func TestInventoryValidate(t *testing.T) {
	tests := []struct {
		name    string
		inv     Inventory
		wantErr bool
	}{
		{"valid", Inventory{Total: 8, MinUnit: 1, MaxUnit: 8, StepSize: 1, AllocationRatio: 1.0}, false},
		{"zero total", Inventory{MinUnit: 1, MaxUnit: 1, StepSize: 1, AllocationRatio: 1.0}, true},
		{"min above max", Inventory{Total: 8, MinUnit: 4, MaxUnit: 2, StepSize: 1, AllocationRatio: 1.0}, true},
		{"zero step size", Inventory{Total: 8, MinUnit: 1, MaxUnit: 8, AllocationRatio: 1.0}, true},
		{"zero ratio", Inventory{Total: 8, MinUnit: 1, MaxUnit: 8, StepSize: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inv.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRecordJSONOmitsEmptyProvider(t *testing.T) {
	rec := Record{
		ResourceClass: "VCPU",
		Inventory:     Inventory{Total: 8, MinUnit: 1, MaxUnit: 8, StepSize: 1, AllocationRatio: 1.0},
	}

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "VCPU", m["resource_class"])
	assert.NotContains(t, m, "resource_provider")

	rec.ResourceProvider = "some-uuid"
	b, err = json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "some-uuid", m["resource_provider"])
}

func TestRecordListTable(t *testing.T) {
	l := RecordList{
		{ResourceClass: "VCPU", Inventory: Inventory{Total: 8, MinUnit: 1, MaxUnit: 4, StepSize: 1, AllocationRatio: 16.0}},
	}

	assert.Equal(t,
		[]string{"resource_class", "total", "reserved", "min_unit", "max_unit", "step_size", "allocation_ratio"},
		l.TableHeader())
	require.Len(t, l.TableRows(), 1)
	assert.Equal(t, []string{"VCPU", "8", "0", "1", "4", "1", "16.0"}, l.TableRows()[0])

	l[0].ResourceProvider = "rp-1"
	assert.Contains(t, l.TableHeader(), "resource_provider")
	assert.Equal(t, "rp-1", l.TableRows()[0][7])
}

func TestRecordTable(t *testing.T) {
	rec := Record{
		ResourceClass: "VCPU",
		Inventory: Inventory{
			Total: 8, MinUnit: 1, MaxUnit: 2147483647, StepSize: 1, AllocationRatio: 16.0,
		},
	}

	// A single record renders through the same typed path as a list, so
	// large integers and whole-number ratios keep their shape.
	assert.Equal(t, RecordList{rec}.TableHeader(), rec.TableHeader())
	require.Len(t, rec.TableRows(), 1)
	assert.Equal(t, []string{"VCPU", "8", "0", "1", "2147483647", "1", "16.0"}, rec.TableRows()[0])
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "16.0", FormatRatio(16))
	assert.Equal(t, "1.5", FormatRatio(1.5))
	assert.Equal(t, "2.5", FormatRatio(2.5))
}

func TestParseAllocationArg(t *testing.T) {
	alloc, err := ParseAllocationArg("rp=a1b2,VCPU=2,MEMORY_MB=512")
	require.NoError(t, err)
	assert.Equal(t, "a1b2", alloc.ProviderUUID)
	assert.Equal(t, map[string]int64{"VCPU": 2, "MEMORY_MB": 512}, alloc.Resources)

	for _, bad := range []string{"", "VCPU=2", "rp=a1b2", "rp=a1b2,VCPU", "rp=a1b2,VCPU=two"} {
		_, err := ParseAllocationArg(bad)
		require.Error(t, err, "expected %q to fail", bad)
	}
}
