package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
)

func TestParseInventoryTokens(t *testing.T) {
	req, err := ParseInventoryTokens([]string{
		"VCPU=8",
		"VCPU:max_unit=4",
		"MEMORY_MB=1024",
		"MEMORY_MB:reserved=256",
		"DISK_GB=16",
		"DISK_GB:allocation_ratio=1.5",
		"DISK_GB:min_unit=2",
		"DISK_GB:step_size=2",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"VCPU", "MEMORY_MB", "DISK_GB"}, req.Classes())

	vcpu := req.Update("VCPU")
	require.NotNil(t, vcpu.Total)
	assert.Equal(t, int64(8), *vcpu.Total)
	require.NotNil(t, vcpu.MaxUnit)
	assert.Equal(t, int64(4), *vcpu.MaxUnit)
	assert.Nil(t, vcpu.Reserved)

	mem := req.Update("MEMORY_MB")
	require.NotNil(t, mem.Reserved)
	assert.Equal(t, int64(256), *mem.Reserved)

	disk := req.Update("DISK_GB")
	require.NotNil(t, disk.AllocationRatio)
	assert.Equal(t, 1.5, *disk.AllocationRatio)
	require.NotNil(t, disk.MinUnit)
	assert.Equal(t, int64(2), *disk.MinUnit)
	require.NotNil(t, disk.StepSize)
	assert.Equal(t, int64(2), *disk.StepSize)
}

func TestParseInventoryTokensEmpty(t *testing.T) {
	req, err := ParseInventoryTokens(nil)
	require.NoError(t, err)
	assert.True(t, req.Empty())
}

func TestParseInventoryTokensSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantCode placementerrors.ErrorCode
		wantMsg  string
	}{
		{"no equals", "VCPU", placementerrors.ErrCodeMalformedArgument, `must have "name=value"`},
		{"double equals", "VCPU==", placementerrors.ErrCodeMalformedArgument, `must have "name=value"`},
		{"empty name", "=10", placementerrors.ErrCodeEmptyArgument, "must be not empty"},
		{"empty value", "v=", placementerrors.ErrCodeEmptyArgument, "must be not empty"},
		{"empty field", "VCPU:=8", placementerrors.ErrCodeEmptyArgument, "must be not empty"},
		{"unknown field", "VCPU:fake=16", placementerrors.ErrCodeUnknownInventoryField, "Unknown inventory field 'fake'"},
		{"non numeric total", "VCPU=lots", placementerrors.ErrCodeMalformedArgument, "must be an integer"},
		{"float for int field", "VCPU:max_unit=1.5", placementerrors.ErrCodeMalformedArgument, "must be an integer"},
		{"non numeric ratio", "VCPU:allocation_ratio=high", placementerrors.ErrCodeMalformedArgument, "must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInventoryTokens([]string{tt.token})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, placementerrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseInventoryTokensRatioWithoutDot(t *testing.T) {
	// allocation_ratio accepts both "16" and "16.0"
	req, err := ParseInventoryTokens([]string{"VCPU:allocation_ratio=16", "VCPU=8"})
	require.NoError(t, err)
	u := req.Update("VCPU")
	require.NotNil(t, u.AllocationRatio)
	assert.Equal(t, 16.0, *u.AllocationRatio)
}

func TestParseInventoryTokensLastAssignmentWins(t *testing.T) {
	req, err := ParseInventoryTokens([]string{"VCPU=8", "VCPU=16"})
	require.NoError(t, err)
	u := req.Update("VCPU")
	require.NotNil(t, u.Total)
	assert.Equal(t, int64(16), *u.Total)
	assert.Equal(t, []string{"VCPU"}, req.Classes())
}

func TestValidateClasses(t *testing.T) {
	req, err := ParseInventoryTokens([]string{"VCPU=8", "UNKNOWN_CPU=16"})
	require.NoError(t, err)

	vocab := NewVocabulary()
	err = req.ValidateClasses(vocab)
	require.Error(t, err)
	assert.Equal(t, placementerrors.ErrCodeUnknownResourceClass, placementerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Unknown resource class 'UNKNOWN_CPU'")
}

func TestValidateClassesWithCustom(t *testing.T) {
	req, err := ParseInventoryTokens([]string{"CUSTOM_FOO=1"})
	require.NoError(t, err)
	assert.True(t, req.HasNonStandardClass())

	require.Error(t, req.ValidateClasses(NewVocabulary()))
	require.NoError(t, req.ValidateClasses(NewVocabulary("CUSTOM_FOO")))
}
