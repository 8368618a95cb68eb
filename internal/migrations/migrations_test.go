package migrations

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(*sqlx.Tx) error { return nil }

func TestAddMigrationKeepsVersionsSorted(t *testing.T) {
	mg := &Migrator{versions: []string{}, migrations: map[string]*migration{}}
	for _, v := range []string{"20260301090200", "20260101000000", "20260301090000", "20270101000000"} {
		mg.addMigration(&migration{version: v, up: noop, down: noop})
	}

	assert.Equal(t, []string{"20260101000000", "20260301090000", "20260301090200", "20270101000000"}, mg.versions)

	mg.migrations["20260101000000"].done = true
	assert.Equal(t, []string{"20260301090000", "20260301090200", "20270101000000"}, mg.Pending())
}

func TestRegisteredMigrations(t *testing.T) {
	require.Len(t, m.versions, len(m.migrations))
	for i := 1; i < len(m.versions); i++ {
		assert.Less(t, m.versions[i-1], m.versions[i])
	}
	for _, mg := range m.migrations {
		assert.NotNil(t, mg.up, mg.version)
		assert.NotNil(t, mg.down, mg.version)
	}
}

func TestReverseCopies(t *testing.T) {
	in := []string{"a", "b", "c"}
	assert.Equal(t, []string{"c", "b", "a"}, reverse(in))
	assert.Equal(t, []string{"a", "b", "c"}, in)
}
