package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVault collects writes in memory and can fail selected paths.
type fakeVault struct {
	written   map[string][]byte
	failPaths map[string]bool
}

func newFakeVault() *fakeVault {
	return &fakeVault{written: make(map[string][]byte), failPaths: make(map[string]bool)}
}

func (v *fakeVault) Exists(path string) bool {
	_, ok := v.written[path]
	return ok
}

func (v *fakeVault) ReadText(path string) (string, error) {
	data, ok := v.written[path]
	if !ok {
		return "", errors.New("not found")
	}
	return string(data), nil
}

func (v *fakeVault) WriteText(path, content string) error {
	return v.WriteBinary(path, []byte(content))
}

func (v *fakeVault) WriteBinary(path string, data []byte) error {
	if v.failPaths[path] {
		return errors.New("disk full")
	}
	v.written[path] = data
	return nil
}

func (v *fakeVault) CreateFolder(path string) error { return nil }

func TestProcess_StoresUniqueBlobs(t *testing.T) {
	v := newFakeVault()
	p := NewProcessor(v)

	files := map[string][]byte{
		"map.png":   []byte("png-data"),
		"hello.mp3": []byte("mp3-data"),
	}

	paths, assets, failures := p.Process(context.Background(), files, "My Deck")

	assert.Empty(t, failures)
	require.Len(t, assets, 2)
	assert.Len(t, paths, 2)
	assert.Equal(t, []byte("png-data"), v.written[paths["map.png"]])
	assert.True(t, strings.HasPrefix(paths["map.png"], "attachments/My Deck/"))
}

func TestProcess_DeduplicatesByContent(t *testing.T) {
	v := newFakeVault()
	p := NewProcessor(v)

	// Identical bytes under two different names
	files := map[string][]byte{
		"copy-a.png": []byte("same-bytes"),
		"copy-b.png": []byte("same-bytes"),
	}

	paths, assets, failures := p.Process(context.Background(), files, "deck")

	assert.Empty(t, failures)
	require.Len(t, assets, 1)
	assert.Equal(t, 2, assets[0].RefCount)
	assert.Equal(t, paths["copy-a.png"], paths["copy-b.png"])
	// Only one physical write
	assert.Len(t, v.written, 1)
}

func TestProcess_DedupAcrossCalls(t *testing.T) {
	v := newFakeVault()
	p := NewProcessor(v)

	first, _, _ := p.Process(context.Background(), map[string][]byte{"a.png": []byte("blob")}, "deck")
	second, assets, _ := p.Process(context.Background(), map[string][]byte{"b.png": []byte("blob")}, "deck")

	// Second call reuses the first call's stored copy
	assert.Empty(t, assets)
	assert.Equal(t, first["a.png"], second["b.png"])
}

func TestProcess_CollisionSuffixing(t *testing.T) {
	v := newFakeVault()
	p := NewProcessor(v)

	// Different bytes, names that sanitize to the same thing
	files := map[string][]byte{
		`photo?.png`: []byte("one"),
		`photo*.png`: []byte("two"),
	}

	paths, assets, failures := p.Process(context.Background(), files, "deck")

	assert.Empty(t, failures)
	assert.Len(t, assets, 2)
	assert.NotEqual(t, paths["photo?.png"], paths["photo*.png"])
	assert.Contains(t, v.written, "attachments/deck/photo.png")
	assert.Contains(t, v.written, "attachments/deck/photo-2.png")
}

func TestProcess_WriteFailureIsPerAsset(t *testing.T) {
	v := newFakeVault()
	v.failPaths["attachments/deck/bad.png"] = true
	p := NewProcessor(v)

	files := map[string][]byte{
		"bad.png":  []byte("doomed"),
		"good.png": []byte("fine"),
	}

	paths, assets, failures := p.Process(context.Background(), files, "deck")

	require.Len(t, failures, 1)
	assert.Equal(t, "bad.png", failures[0].Name)
	assert.NotContains(t, paths, "bad.png")
	assert.Contains(t, paths, "good.png")
	assert.Len(t, assets, 1)
}
