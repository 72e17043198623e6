package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())

	a, ok := reg.Variant(VariantAfiliacion)
	require.True(t, ok)
	assert.True(t, a.ResetOnSuccess)
	assert.True(t, a.TrackBusy)
	assert.True(t, a.PassAfiliacion)
	assert.Len(t, a.Documents, 2)
	assert.Contains(t, a.Empresas, "Otros")

	b, ok := reg.Variant(VariantSorteo)
	require.True(t, ok)
	assert.False(t, b.ResetOnSuccess)
	assert.False(t, b.TrackBusy)
	assert.False(t, b.PassAfiliacion)
	assert.Empty(t, b.Documents)

	_, ok = reg.Variant("navidad")
	assert.False(t, ok)
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forms.json")

	data, err := json.Marshal(Default())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Variants, 2)
}

func TestLoadRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{"malformed", `{"variants":`, "parse registry"},
		{"empty", `{"variants":[]}`, "no variants"},
		{"duplicate", `{"variants":[{"id":"a","fields":["dni"],"successMessage":"ok"},{"id":"a","fields":["dni"],"successMessage":"ok"}]}`, "duplicate variant"},
		{"no fields", `{"variants":[{"id":"a","successMessage":"ok"}]}`, "has no fields"},
		{"bad document", `{"variants":[{"id":"a","fields":["dni"],"successMessage":"ok","documents":[{"id":"x"}]}]}`, "document without id or path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "forms.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))
			_, err := LoadRegistry(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadRegistry_ShippedFileMatchesDefault(t *testing.T) {
	reg, err := LoadRegistry("../../configs/forms.json")
	require.NoError(t, err)
	assert.Equal(t, Default().Variants, reg.Variants)
}
