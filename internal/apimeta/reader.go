package apimeta

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"engineguard/internal/policy"
	"engineguard/internal/shared/observability"
)

const (
	apiDirName    = "api"
	allowlistFile = "_allowlist.rb"
	whitelistFile = "_whitelist.rb"
	legacyFile    = "_legacy_dependents.rb"
)

// Artifacts holds one engine's declared API metadata.
type Artifacts struct {
	Allowlist        []string
	LegacyDependents []string
}

// Reader loads per-engine API artifacts and caches them for the run. The
// cache key is a checksum over the modification times of every file in the
// engine's api/ directory, so edits during a run invalidate the entry on
// the next read.
type Reader struct {
	root  string
	store *policy.Store

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	checksum  int64
	artifacts Artifacts
}

func NewReader(root string, store *policy.Store) *Reader {
	return &Reader{
		root:  root,
		store: store,
		cache: make(map[string]cacheEntry),
	}
}

func (r *Reader) Allowlist(engine string) []string {
	return r.artifacts(engine).Allowlist
}

func (r *Reader) LegacyDependents(engine string) []string {
	return r.artifacts(engine).LegacyDependents
}

func (r *Reader) artifacts(engine string) Artifacts {
	dir, ok := r.store.EngineDir(engine)
	if !ok {
		return Artifacts{}
	}
	apiDir := filepath.Join(r.root, dir, apiDirName)
	sum := dirChecksum(apiDir)

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.cache[engine]; ok && entry.checksum == sum {
		observability.APICacheHits.Inc()
		return entry.artifacts
	}
	observability.APICacheMisses.Inc()

	artifacts := Artifacts{
		Allowlist:        readList(filepath.Join(apiDir, allowlistFile)),
		LegacyDependents: readList(filepath.Join(apiDir, legacyFile)),
	}
	if len(artifacts.Allowlist) == 0 {
		// Older engines still declare their surface in a whitelist file.
		// An absent and an empty allowlist fall back identically.
		artifacts.Allowlist = readList(filepath.Join(apiDir, whitelistFile))
	}

	r.cache[engine] = cacheEntry{checksum: sum, artifacts: artifacts}
	return artifacts
}

// Checksum returns an opaque change-detection token over every engine's
// api/ directory, for the host's own incremental-analysis layer.
func (r *Reader) Checksum() string {
	var total int64
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return "0"
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		total += dirChecksum(filepath.Join(r.root, entry.Name(), apiDirName))
	}
	return strconv.FormatInt(total, 10)
}

func readList(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return extractList(data)
}

func dirChecksum(dir string) int64 {
	var sum int64
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			sum += info.ModTime().Unix()
		}
		return nil
	})
	return sum
}
