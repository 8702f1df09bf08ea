package ringsig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderStatus_String(t *testing.T) {
	assert.Equal(t, "NotDetected", StatusNotDetected.String())
	assert.Equal(t, "Installing", StatusInstalling.String())
	assert.Equal(t, "Installed", StatusInstalled.String())
	assert.Equal(t, "Unknown", ProviderStatus(42).String())
}

func TestVariant(t *testing.T) {
	for _, name := range []string{"SAG", "sag", "LSAG", "lsag"} {
		v, ok := ParseVariant(name)
		assert.True(t, ok, name)
		assert.Contains(t, []Variant{VariantSAG, VariantLSAG}, v)
	}

	_, ok := ParseVariant("MLSAG")
	assert.False(t, ok)
	assert.Equal(t, "Unknown", Variant(0).String())
}

func TestRing_Clone(t *testing.T) {
	r := Ring{"a", "b"}
	c := r.Clone()
	r[0] = "z"

	assert.Equal(t, Ring{"a", "b"}, c)
	assert.True(t, c.Contains("b"))
	assert.False(t, c.Contains("z"))
}
