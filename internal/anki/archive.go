package anki

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// CollectionFileV2 is the legacy collection database name inside an export
	CollectionFileV2 = "collection.anki2"
	// CollectionFileV21 is the newer collection database name, preferred when present
	CollectionFileV21 = "collection.anki21"
	// MediaIndexFile maps numeric zip entry names to original media filenames
	MediaIndexFile = "media"
)

var (
	// ErrNotAnArchive indicates the input bytes are not a readable zip container.
	ErrNotAnArchive = errors.New("not a valid archive")
	// ErrNoCollection indicates no embedded collection database was found.
	ErrNoCollection = errors.New("no collection database in archive")
	// ErrBadMediaIndex indicates the media index file could not be decoded.
	ErrBadMediaIndex = errors.New("unreadable media index")
)

// Archive is a decompressed export container: the extracted collection
// database and the media blobs keyed by their original filenames.
// Close must be called to remove the extracted database.
type Archive struct {
	DBPath     string
	MediaFiles map[string][]byte

	tempDir string
}

// Close removes the temporary directory holding the extracted database.
func (a *Archive) Close() error {
	if a.tempDir == "" {
		return nil
	}
	return os.RemoveAll(a.tempDir)
}

// OpenArchive unpacks an export archive from memory. It extracts the
// embedded collection database to a temporary file (the SQLite driver
// needs a real path) and loads the media index and blobs.
//
// All failures here are fatal for the import: a corrupt container,
// a missing collection database or an unreadable media index mean no
// cards can be produced at all.
func OpenArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnArchive, err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	// Prefer the newer collection format when an export carries both.
	collection := entries[CollectionFileV21]
	if collection == nil {
		collection = entries[CollectionFileV2]
	}
	if collection == nil {
		return nil, ErrNoCollection
	}

	tempDir, err := os.MkdirTemp("", "deckport-archive-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	dbPath := filepath.Join(tempDir, "collection.db")
	if err := extractZipFile(collection, dbPath); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to extract collection database: %w", err)
	}

	mediaFiles, err := loadMedia(entries)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	return &Archive{
		DBPath:     dbPath,
		MediaFiles: mediaFiles,
		tempDir:    tempDir,
	}, nil
}

// loadMedia reads the media index (a JSON object mapping zip entry names
// like "0", "1" to original filenames) and collects the referenced blobs.
func loadMedia(entries map[string]*zip.File) (map[string][]byte, error) {
	indexFile, ok := entries[MediaIndexFile]
	if !ok {
		// Exports without media carry no index; that's a valid archive.
		return map[string][]byte{}, nil
	}

	indexBytes, err := readZipFile(indexFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMediaIndex, err)
	}

	var index map[string]string
	if err := json.Unmarshal(indexBytes, &index); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMediaIndex, err)
	}

	media := make(map[string][]byte, len(index))
	for key, originalName := range index {
		entry, ok := entries[key]
		if ok {
			blob, err := readZipFile(entry)
			if err != nil {
				return nil, fmt.Errorf("failed to read media entry %s (%s): %w", key, originalName, err)
			}
			media[originalName] = blob
		}
	}

	return media, nil
}

// extractZipFile extracts a single file from a zip archive
func extractZipFile(file *zip.File, destPath string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	outFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer outFile.Close()

	_, err = io.Copy(outFile, rc)
	return err
}

// readZipFile reads a zip entry fully into memory
func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
