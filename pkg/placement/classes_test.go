package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVocabularyContains(t *testing.T) {
	v := NewVocabulary("CUSTOM_FOO")

	assert.True(t, v.Contains("VCPU"))
	assert.True(t, v.Contains("MEMORY_MB"))
	assert.True(t, v.Contains("CUSTOM_FOO"))
	assert.False(t, v.Contains("CUSTOM_BAR"))
	assert.False(t, v.Contains("UNKNOWN_CPU"))
	assert.False(t, v.Contains("vcpu"))
}

func TestVocabularySuggest(t *testing.T) {
	v := NewVocabulary()

	assert.Equal(t, "VCPU", v.Suggest("VCPUS"))
	assert.Equal(t, "MEMORY_MB", v.Suggest("MEMORY_GB"))
	assert.Equal(t, "", v.Suggest("SOMETHING_COMPLETELY_DIFFERENT"))
}

func TestIsCustomClass(t *testing.T) {
	assert.True(t, IsCustomClass("CUSTOM_FOO"))
	assert.False(t, IsCustomClass("VCPU"))
}

func TestValidCustomClassName(t *testing.T) {
	assert.True(t, ValidCustomClassName("CUSTOM_FOO"))
	assert.True(t, ValidCustomClassName("CUSTOM_GPU_V100"))
	assert.False(t, ValidCustomClassName("VCPU"))
	assert.False(t, ValidCustomClassName("CUSTOM_lower"))
	assert.False(t, ValidCustomClassName("CUSTOM_FOO-BAR"))
}
