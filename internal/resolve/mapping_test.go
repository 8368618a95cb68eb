package resolve

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping([]byte(`
version: 2
renames:
  - old_name: " Picklr "
    new_name: Picklr test
    effective_from: 2025-06-01
  - old_name: CopperField
    new_name: CopperTestField
`))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Version)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, "Picklr", m.Renames[0].OldName)

	name, ok := m.Lookup("CopperField", time.Now())
	assert.True(t, ok)
	assert.Equal(t, "CopperTestField", name)

	_, ok = m.Lookup("copperfield", time.Now())
	assert.False(t, ok, "lookup is exact")
}

func TestParseMappingErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{name: "missing new name", data: "renames:\n  - old_name: A\n", want: "required"},
		{name: "self mapping", data: "renames:\n  - old_name: A\n    new_name: A\n", want: "maps to itself"},
		{name: "bad date", data: "renames:\n  - old_name: A\n    new_name: B\n    effective_from: June\n", want: "effective_from"},
		{name: "not yaml", data: "renames: [", want: "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMapping([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLookupFirstRuleInEffectWins(t *testing.T) {
	m, err := ParseMapping([]byte(`
renames:
  - old_name: A
    new_name: B
    effective_from: 2025-03-01
  - old_name: A
    new_name: C
`))
	require.NoError(t, err)

	name, ok := m.Lookup("A", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "C", name)

	name, ok = m.Lookup("A", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "B", name)
}

func TestNilMapping(t *testing.T) {
	var m *Mapping
	_, ok := m.Lookup("anything", time.Now())
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMappingFromPairsIsOrdered(t *testing.T) {
	m := MappingFromPairs(map[string]string{"b": "B", "a": "A", "c": "C"})
	require.Equal(t, 3, m.Len())
	assert.Equal(t, "a", m.Renames[0].OldName)
	assert.Equal(t, "c", m.Renames[2].OldName)
}

func TestLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renames.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nrenames:\n  - old_name: X\n    new_name: Y\n"), 0o600))

	m, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	_, err = LoadMapping(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
