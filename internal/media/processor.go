package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/akarpovich/deckport/internal/entities"
	"github.com/akarpovich/deckport/internal/utils"
	"github.com/akarpovich/deckport/internal/vault"
)

// AttachmentsDir is the vault folder media assets are stored under.
const AttachmentsDir = "attachments"

// WriteFailure records one blob that could not be persisted. The asset is
// dropped from the path map; referencing cards keep the original name.
type WriteFailure struct {
	Name   string
	Reason string
}

// registry is the run-wide hash → asset table. All mutation goes through
// insertIfAbsent so concurrent writers cannot double-store a blob.
type registry struct {
	mu     sync.Mutex
	byHash map[string]*entities.MediaAsset
}

// insertIfAbsent returns the existing asset for hash with its reference
// count bumped, or registers the given one with a count of 1.
func (r *registry) insertIfAbsent(hash string, asset *entities.MediaAsset) (*entities.MediaAsset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byHash[hash]; ok {
		existing.RefCount++
		return existing, false
	}
	asset.RefCount = 1
	r.byHash[hash] = asset
	return asset, true
}

// remove forgets a hash whose blob could not be written, so a later
// reference to the same content gets a fresh write attempt.
func (r *registry) remove(hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byHash, hash)
}

// Processor persists unique media blobs into the vault, deduplicating by
// content hash across the whole import run.
type Processor struct {
	vault vault.Vault

	registry  registry
	nameMu    sync.Mutex
	usedNames map[string]bool
}

// NewProcessor creates a processor writing through the given vault.
func NewProcessor(v vault.Vault) *Processor {
	return &Processor{
		vault:     v,
		registry:  registry{byHash: make(map[string]*entities.MediaAsset)},
		usedNames: make(map[string]bool),
	}
}

// Process hashes and stores every referenced blob. It returns the
// original-name → stored-reference map, the unique assets registered this
// call, and per-asset write failures. A failed write drops the name from
// the map but never aborts the run.
//
// Names are processed in sorted order so collision suffixes are
// deterministic for a given archive.
func (p *Processor) Process(ctx context.Context, files map[string][]byte, scope string) (map[string]string, []*entities.MediaAsset, []WriteFailure) {
	paths := make(map[string]string, len(files))
	var assets []*entities.MediaAsset
	var failures []WriteFailure

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	scopeDir := path.Join(AttachmentsDir, utils.SanitizeFilename(scope))
	if err := p.vault.CreateFolder(scopeDir); err != nil {
		for _, name := range names {
			failures = append(failures, WriteFailure{Name: name, Reason: err.Error()})
		}
		return paths, nil, failures
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			failures = append(failures, WriteFailure{Name: name, Reason: err.Error()})
			continue
		}

		data := files[name]
		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])

		candidate := &entities.MediaAsset{
			Hash: hash,
			Size: int64(len(data)),
		}
		asset, fresh := p.registry.insertIfAbsent(hash, candidate)
		if !fresh {
			// Identical bytes under another name: reuse the stored copy.
			paths[name] = asset.StoredRef
			continue
		}

		storedRef := path.Join(scopeDir, p.claimName(name))
		if err := p.vault.WriteBinary(storedRef, data); err != nil {
			p.registry.remove(hash)
			failures = append(failures, WriteFailure{
				Name:   name,
				Reason: fmt.Sprintf("failed to write media: %v", err),
			})
			continue
		}

		asset.StoredRef = storedRef
		paths[name] = storedRef
		assets = append(assets, asset)
	}

	return paths, assets, failures
}

// claimName sanitizes an original filename and resolves collisions
// between distinct blobs by numeric suffixing.
func (p *Processor) claimName(original string) string {
	p.nameMu.Lock()
	defer p.nameMu.Unlock()

	name := utils.SanitizeFilename(original)
	candidate := name
	for n := 2; p.usedNames[candidate]; n++ {
		candidate = utils.SuffixFilename(name, n)
	}
	p.usedNames[candidate] = true
	return candidate
}
