package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRegistryLifecycle(t *testing.T) {
	reg := NewImageRegistry()

	img := reg.Add("class_photo.jpg", []byte("jpeg-bytes"))
	assert.NotEmpty(t, img.ID)
	assert.False(t, img.Scanned)

	got, err := reg.Get(img.ID)
	require.NoError(t, err)
	assert.Equal(t, "class_photo.jpg", got.Filename)

	require.NoError(t, reg.MarkScanned(img.ID, []string{"A1", "A2"}))
	got, err = reg.Get(img.ID)
	require.NoError(t, err)
	assert.True(t, got.Scanned)
	assert.Equal(t, []string{"A1", "A2"}, got.ContributedRolls)

	removed, err := reg.Remove(img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.ID, removed.ID)

	_, err = reg.Get(img.ID)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestMarkScannedIsOneWay(t *testing.T) {
	reg := NewImageRegistry()
	img := reg.Add("photo.jpg", nil)

	require.NoError(t, reg.MarkScanned(img.ID, nil))
	assert.ErrorIs(t, reg.MarkScanned(img.ID, nil), ErrAlreadyScanned)
}

func TestImageRegistryUnknownID(t *testing.T) {
	reg := NewImageRegistry()

	_, err := reg.Get("img_missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.ErrorIs(t, reg.MarkScanned("img_missing", nil), ErrImageNotFound)
	_, err = reg.Remove("img_missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestListPreservesUploadOrderAndStripsData(t *testing.T) {
	reg := NewImageRegistry()
	first := reg.Add("one.jpg", []byte("a"))
	second := reg.Add("two.jpg", []byte("b"))

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Nil(t, list[0].Data)
	assert.Nil(t, list[1].Data)

	reg.Clear()
	assert.Empty(t, reg.List())
}

func TestNewImageIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewImageID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
