package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"ferrous/internal/borrowck"
	"ferrous/internal/diag"
	"ferrous/internal/facts"
	"ferrous/internal/symbols"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты проверки по digest фактов на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload stores a cached check result for an unchanged body.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Name        string
	Digest      facts.Digest
	Diagnostics []diag.Diagnostic
	UsedMut     []uint32
	Loans       int
	Moves       int
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key facts.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Для удобства читаемости/очистки — подкаталог "bodies".
	return filepath.Join(c.dir, "bodies", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key facts.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key facts.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// Lookup reconstructs a BodyResult for an unchanged body, if cached.
func (c *DiskCache) Lookup(key facts.Digest, maxDiagnostics int) (*BodyResult, bool) {
	if c == nil {
		return nil, false
	}
	var payload DiskPayload
	ok, err := c.Get(key, &payload)
	if err != nil || !ok || payload.Schema != diskCacheSchemaVersion || payload.Digest != key {
		return nil, false
	}
	bag := diag.NewBag(maxDiagnostics)
	for _, d := range payload.Diagnostics {
		bag.Add(d)
	}
	usedMut := make(map[symbols.SymbolID]struct{}, len(payload.UsedMut))
	for _, sym := range payload.UsedMut {
		usedMut[symbols.SymbolID(sym)] = struct{}{}
	}
	return &BodyResult{
		Name:   payload.Name,
		Digest: key,
		Bag:    bag,
		Result: &borrowck.Result{
			UsedMut: usedMut,
			Loans:   payload.Loans,
			Moves:   payload.Moves,
		},
	}, true
}

// Store records a finished check for future runs. Failures are silent:
// a broken cache must never break the check.
func (c *DiskCache) Store(res *BodyResult) {
	if c == nil || res == nil || res.Result == nil {
		return
	}
	usedMut := make([]uint32, 0, len(res.Result.UsedMut))
	for sym := range res.Result.UsedMut {
		usedMut = append(usedMut, uint32(sym))
	}
	payload := DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Name:        res.Name,
		Digest:      res.Digest,
		Diagnostics: res.Bag.Items(),
		UsedMut:     usedMut,
		Loans:       res.Result.Loans,
		Moves:       res.Result.Moves,
	}
	_ = c.Put(res.Digest, &payload)
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := fmt.Sprintf("%s.old-%s", c.dir, time.Now().Format("20060102150405"))
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
