package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/billmal071/d5s/internal/portal"
)

// CatalogCacheEntry is a cached catalog listing
type CatalogCacheEntry struct {
	CacheKey    string
	Entries     []portal.CatalogEntry
	ResultCount int
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// GenerateCacheKey derives a cache key from the catalog url and account
func GenerateCacheKey(catalogURL, account string) string {
	hash := sha256.Sum256([]byte(catalogURL + "\x00" + account))
	return fmt.Sprintf("%x", hash[:16])
}

// GetCachedCatalog returns a cached listing, or nil on a miss or expiry
func GetCachedCatalog(cacheKey string) (*CatalogCacheEntry, error) {
	var (
		resultsJSON string
		count       int
		created     int64
		expires     int64
	)
	err := builder().Select("results_json", "result_count", "created_at", "expires_at").
		From("catalog_cache").
		Where(sq.Eq{"cache_key": cacheKey}).
		Where(sq.Gt{"expires_at": time.Now().Unix()}).
		QueryRow().
		Scan(&resultsJSON, &count, &created, &expires)
	if err == sql.ErrNoRows {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	entry := &CatalogCacheEntry{
		CacheKey:    cacheKey,
		ResultCount: count,
		CreatedAt:   time.Unix(created, 0),
		ExpiresAt:   time.Unix(expires, 0),
	}
	if err := json.Unmarshal([]byte(resultsJSON), &entry.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode cached catalog: %w", err)
	}
	return entry, nil
}

// SaveCachedCatalog stores a listing for ttl
func SaveCachedCatalog(cacheKey string, entries []portal.CatalogEntry, ttl time.Duration) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = builder().Insert("catalog_cache").
		Options("OR REPLACE").
		Columns("cache_key", "results_json", "result_count", "created_at", "expires_at").
		Values(cacheKey, string(data), len(entries), now.Unix(), now.Add(ttl).Unix()).
		Exec()
	return err
}

// CleanExpiredCache removes expired cache entries
func CleanExpiredCache() error {
	_, err := builder().Delete("catalog_cache").Where(sq.LtOrEq{"expires_at": time.Now().Unix()}).Exec()
	return err
}

// ClearCatalogCache clears all cached listings
func ClearCatalogCache() error {
	_, err := builder().Delete("catalog_cache").Exec()
	return err
}

// GetCacheStats returns the number of cached listings and how many expired
func GetCacheStats() (total, expired int, err error) {
	if err = builder().Select("COUNT(*)").From("catalog_cache").QueryRow().Scan(&total); err != nil {
		return 0, 0, err
	}
	err = builder().Select("COUNT(*)").From("catalog_cache").
		Where(sq.LtOrEq{"expires_at": time.Now().Unix()}).
		QueryRow().Scan(&expired)
	return total, expired, err
}
