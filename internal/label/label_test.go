package label

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/export"
	"github.com/ayusman/mudra/internal/store"
)

func TestMapper_RoundTrip(t *testing.T) {
	m := NewMapper(Entry{0, "hello"}, Entry{1, "thanks"}, Entry{7, "sorry"})

	for _, e := range m.Entries() {
		id, ok := m.ID(e.Name)
		require.True(t, ok)
		assert.Equal(t, e.ID, id)

		name, ok := m.Name(id)
		require.True(t, ok)
		assert.Equal(t, e.Name, name)
	}

	_, ok := m.Name(99)
	assert.False(t, ok)
	assert.Equal(t, Unknown, m.NameOr(99))
	assert.Equal(t, "sorry", m.NameOr(7))
}

func TestMapper_AddReplaces(t *testing.T) {
	m := NewMapper(Entry{1, "hello"})

	m.Add(1, "hi")
	_, ok := m.ID("hello")
	assert.False(t, ok, "old name is unbound")

	m.Add(2, "hi")
	_, ok = m.Name(1)
	assert.False(t, ok, "old id is unbound")
	assert.Equal(t, 1, m.Len())

	m.Remove(2)
	assert.Equal(t, 0, m.Len())
}

type fakeSource struct {
	labels []*store.Label
	err    error
}

func (s fakeSource) List() ([]*store.Label, error) { return s.labels, s.err }

func TestMapper_Load(t *testing.T) {
	m := NewMapper(Entry{9, "stale"})

	err := m.Load(fakeSource{labels: []*store.Label{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}}})
	require.NoError(t, err)

	want := []Entry{{1, "a"}, {2, "b"}}
	if diff := cmp.Diff(want, m.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	err = m.Load(fakeSource{err: errors.New("boom")})
	assert.Error(t, err)
	assert.Equal(t, 2, m.Len(), "failed load keeps contents")
}

func TestParse(t *testing.T) {
	input := `# id name
0 hello

1	thank you
  12 good morning  
`
	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	want := []Entry{{0, "hello"}, {1, "thank you"}, {12, "good morning"}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing name", "3\n"},
		{"bad id", "x hello\n"},
		{"path name", "3 x/../../../etc\n"},
		{"tab in name", "3 a\tb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParse_UnsafeName(t *testing.T) {
	_, err := Parse(strings.NewReader("0 hello\n1 ../../etc\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, export.ErrInvalidName)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("4 wave\n"), 0644))

	entries, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{4, "wave"}}, entries)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
