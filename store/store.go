package store

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"festival-map-cli/model"
)

// The catalog is a static snapshot per festival edition; half a day of
// staleness is acceptable.
const catalogCacheTTL = 12 * time.Hour

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

// LoadCatalogCache returns the cached catalog for the given source URL and
// whether it is still fresh. A missing cache file is not an error.
func LoadCatalogCache(sourceURL string) (model.Catalog, bool, error) {
	path, err := cachePath(catalogFileName(sourceURL))
	if err != nil {
		return model.Catalog{}, false, err
	}
	cache, err := loadCache[model.Catalog](path)
	if err != nil {
		return model.Catalog{}, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= catalogCacheTTL, nil
}

func SaveCatalogCache(sourceURL string, catalog model.Catalog) error {
	path, err := cachePath(catalogFileName(sourceURL))
	if err != nil {
		return err
	}
	return saveCache(path, catalog)
}

// catalogFileName keys the cache file by source URL so switching feeds never
// serves another feed's snapshot.
func catalogFileName(sourceURL string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sourceURL))
	return fmt.Sprintf("catalog_%x.json", h.Sum64())
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	payload, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "festival-map-cli", name), nil
}
