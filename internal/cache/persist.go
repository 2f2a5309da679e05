package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Flush writes the cached entries of each type in dataTypes to
// <dir>/<database>/<dataType>.json as a flat {original: synthetic} object
// (a type with no cached entries gets no file),
// per §4.B and §6. It is called on successful run completion and whenever
// the engine requests an interim flush.
func (c *Cache) Flush(dir, database string, dataTypes []string) error {
	target := filepath.Join(dir, database)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating mapping cache directory %q: %w", target, err)
	}

	for _, dataType := range dataTypes {
		entries := c.snapshotType(dataType)
		if len(entries) == 0 {
			continue
		}
		raw, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling cache for data type %q: %w", dataType, err)
		}
		path := filepath.Join(target, dataType+".json")
		if err := writeAtomic(path, raw); err != nil {
			return fmt.Errorf("writing cache file %q: %w", path, err)
		}
	}
	return nil
}

// Load reads every persisted <dataType>.json file under <dir>/<database>
// whose dataType is still in the caller-supplied cacheableTypes set,
// discarding any type that has since moved to the never-cache set per §4.B:
// "On load, discard any entry whose dataType is now in the never-cache set
// (backward compatibility)."
func (c *Cache) Load(dir, database string, cacheableTypes []string) error {
	target := filepath.Join(dir, database)
	for _, dataType := range cacheableTypes {
		path := filepath.Join(target, dataType+".json")
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading cache file %q: %w", path, err)
		}
		var entries map[string]string
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("parsing cache file %q: %w", path, err)
		}
		c.loadType(dataType, entries)
	}
	return nil
}

// writeAtomic writes data to path via a temp-file-then-rename, the same
// durability pattern internal/checkpoint uses for the run's checkpoint file.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
