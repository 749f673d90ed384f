package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Vault abstracts the host file system the importer writes into. Media
// assets and rendered notes go through this interface so the pipeline
// never touches the disk layout directly.
type Vault interface {
	Exists(path string) bool
	ReadText(path string) (string, error)
	WriteText(path string, content string) error
	WriteBinary(path string, data []byte) error
	CreateFolder(path string) error
}

// DirVault is a Vault rooted at a directory on the local file system.
type DirVault struct {
	root string
}

// NewDirVault creates a vault rooted at root, creating the directory if
// needed and verifying it is writable.
func NewDirVault(root string) (*DirVault, error) {
	if root == "" {
		return nil, fmt.Errorf("vault directory is not set")
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory %s: %w", root, err)
	}

	// Probe writability by touching and removing a marker file
	probe := filepath.Join(root, ".deckport")
	if err := os.WriteFile(probe, nil, 0644); err != nil {
		return nil, fmt.Errorf("vault directory %s is not writable: %w", root, err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("could not remove probe file from vault directory %s: %w", root, err)
	}

	return &DirVault{root: root}, nil
}

// Root returns the vault's base directory.
func (v *DirVault) Root() string {
	return v.root
}

// resolve maps a vault-relative path onto the file system, rejecting
// escapes above the root.
func (v *DirVault) resolve(path string) (string, error) {
	full := filepath.Join(v.root, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(v.root)+string(os.PathSeparator)) && full != filepath.Clean(v.root) {
		return "", fmt.Errorf("path %q escapes the vault", path)
	}
	return full, nil
}

func (v *DirVault) Exists(path string) bool {
	full, err := v.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (v *DirVault) ReadText(path string) (string, error) {
	full, err := v.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func (v *DirVault) WriteText(path string, content string) error {
	return v.WriteBinary(path, []byte(content))
}

func (v *DirVault) WriteBinary(path string, data []byte) error {
	full, err := v.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (v *DirVault) CreateFolder(path string) error {
	full, err := v.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}
