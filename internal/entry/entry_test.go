package entry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRef(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name  string
		entry Entry
		want  Ref
	}{
		{name: "id only", entry: Entry{ProjectID: &id}, want: ByID{ID: id}},
		{name: "name only", entry: Entry{ProjectName: strPtr("Alpha")}, want: ByName{Name: "Alpha"}},
		{name: "both", entry: Entry{ProjectID: &id, ProjectName: strPtr("Alpha")}, want: Resolved{ID: id, Name: "Alpha"}},
		{name: "empty name counts as absent", entry: Entry{ProjectID: &id, ProjectName: strPtr("")}, want: ByID{ID: id}},
		{name: "neither", entry: Entry{}, want: None{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Ref())
		})
	}
}

func TestWithRefRoundTrips(t *testing.T) {
	id := uuid.New()
	refs := []Ref{ByID{ID: id}, ByName{Name: "Alpha"}, Resolved{ID: id, Name: "Alpha"}, None{}}
	for _, ref := range refs {
		e := New(ref, 2.5, "review")
		assert.Equal(t, ref, e.Ref())
		assert.Equal(t, 2.5, e.Hours)
		assert.Equal(t, "review", e.Description)
	}
}

func TestWithRefDoesNotAlias(t *testing.T) {
	id := uuid.New()
	orig := New(Resolved{ID: id, Name: "Alpha"}, 1, "")
	updated := orig.WithRef(Resolved{ID: id, Name: "Alpha2"})

	assert.Equal(t, "Alpha", *orig.ProjectName)
	assert.Equal(t, "Alpha2", *updated.ProjectName)
}

func TestCachedName(t *testing.T) {
	name, ok := CachedName(ByName{Name: "X"})
	assert.True(t, ok)
	assert.Equal(t, "X", name)

	_, ok = CachedName(ByID{ID: uuid.New()})
	assert.False(t, ok)
	_, ok = CachedName(None{})
	assert.False(t, ok)
}

func TestEntriesScanValue(t *testing.T) {
	id := uuid.New()
	in := Entries{
		New(Resolved{ID: id, Name: "Alpha"}, 5, "build"),
		New(ByName{Name: "Legacy"}, 3, ""),
	}

	raw, err := in.Value()
	require.NoError(t, err)

	var out Entries
	require.NoError(t, out.Scan(raw))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(string(raw.([]byte))))
	assert.Equal(t, in, out)

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out)

	assert.Error(t, out.Scan(42))

	raw, err = Entries(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)
}

func TestCloneIsDeep(t *testing.T) {
	id := uuid.New()
	in := Entries{New(Resolved{ID: id, Name: "Alpha"}, 5, "")}
	out := in.Clone()
	*out[0].ProjectName = "Changed"
	assert.Equal(t, "Alpha", *in[0].ProjectName)
	assert.Nil(t, Entries(nil).Clone())
}

func TestHours(t *testing.T) {
	e := Entries{{Hours: 1.25}, {Hours: 2.5}, {Hours: 0}}
	assert.Equal(t, 3.75, e.Hours())
}
