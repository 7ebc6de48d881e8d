// internal/uploads/storage_test.go
package uploads

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStorageRoundTrip(t *testing.T) {
	storage, err := NewDiskStorage(t.TempDir() + "/uploads")
	require.NoError(t, err)

	require.NoError(t, storage.Save("a.pdf", []byte("hello")))
	require.NoError(t, storage.Save("b.pdf", []byte("world!")))

	names, err := storage.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.pdf", "b.pdf"}, names)

	size, err := storage.Size("b.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)

	require.NoError(t, storage.Delete("a.pdf"))
	names, err = storage.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.pdf"}, names)
}

func TestDiskStorageDeleteMissing(t *testing.T) {
	storage, err := NewDiskStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, storage.Delete("nope.pdf"))
}

func TestUniqueName(t *testing.T) {
	pattern := regexp.MustCompile(`^\d+-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.pdf$`)

	name := UniqueName("paystub.pdf")
	assert.Regexp(t, pattern, name)

	// extension preserved, names never collide
	other := UniqueName("paystub.pdf")
	assert.NotEqual(t, name, other)

	bare := UniqueName("README")
	assert.NotContains(t, bare, ".")
}
