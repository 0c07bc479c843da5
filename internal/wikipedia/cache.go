package wikipedia

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"wikistats/internal/providers"
	"wikistats/internal/structures"

	json "github.com/goccy/go-json"
)

// CacheEntry is the on-disk envelope for one upstream response.
type CacheEntry struct {
	StoredAt int64              `json:"storedAt"`
	Payload  *RevisionsResponse `json:"payload"`
}

// DiskCache keeps raw MediaWiki revision responses on disk, one file per
// request-parameter hash, so identical fetches survive process restarts.
// It is an optimization only: every failure path degrades to a miss.
type DiskCache struct {
	dir     string
	ttl     time.Duration
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewDiskCache(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) (*DiskCache, error) {
	if err := os.MkdirAll(conf.Cache.Dir, 0755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	logger.Infof(providers.TypeApp, "MediaWiki disk cache at %s, TTL=%s", conf.Cache.Dir, conf.Cache.TTL)
	return &DiskCache{
		dir:     conf.Cache.Dir,
		ttl:     conf.Cache.TTL,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Key derives the cache key for one page request. The tuple matches the
// upstream query exactly, so equal requests are cache-equivalent across
// processes.
func (dc *DiskCache) Key(title string, limit int, rvstart, rvend, token, param string) string {
	raw := fmt.Sprintf("title=%s|limit=%d|rvstart=%s|rvend=%s|rvcontinue=%s|continue=%s",
		title, limit, rvstart, rvend, token, param)
	digest := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(digest[:])
}

// Read returns the cached payload for key, or nil when the entry is
// absent, expired, unreadable, or an empty terminal page. Expired files
// are deleted on the way out.
func (dc *DiskCache) Read(key string) *RevisionsResponse {
	path := dc.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		dc.metrics.IncDiskCacheMisses()
		return nil
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Payload == nil {
		dc.logger.Warnf(providers.TypeMediaWiki, "Corrupt cache entry %s, treating as miss", key)
		dc.metrics.IncDiskCacheMisses()
		return nil
	}

	age := time.Duration(time.Now().UnixMilli()-entry.StoredAt) * time.Millisecond
	if age > dc.ttl {
		_ = os.Remove(path)
		dc.metrics.IncDiskCacheMisses()
		return nil
	}

	// An empty terminal page may be a transient artifact; replaying it
	// forever would poison every later fetch of the same window.
	if entry.Payload.Terminal() {
		dc.metrics.IncDiskCacheMisses()
		return nil
	}

	dc.metrics.IncDiskCacheHits()
	return entry.Payload
}

// Write stores payload under key, best-effort. Empty terminal pages are
// skipped for the same reason Read rejects them.
func (dc *DiskCache) Write(key string, payload *RevisionsResponse) {
	if payload == nil || payload.Terminal() {
		return
	}

	entry := CacheEntry{StoredAt: time.Now().UnixMilli(), Payload: payload}
	data, err := json.Marshal(&entry)
	if err != nil {
		dc.logger.Warnf(providers.TypeMediaWiki, "Failed to encode cache entry %s: %s", key, err)
		return
	}

	path := dc.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		dc.logger.Warnf(providers.TypeMediaWiki, "Failed to write cache entry %s: %s", key, err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		dc.logger.Warnf(providers.TypeMediaWiki, "Failed to publish cache entry %s: %s", key, err)
		_ = os.Remove(tmp)
	}
}

// CleanupExpired deletes entries past the TTL and stray tmp files.
// Returns the number of removed files.
func (dc *DiskCache) CleanupExpired() (int, error) {
	files, err := filepath.Glob(filepath.Join(dc.dir, "*.json"))
	if err != nil {
		return 0, err
	}

	removed := 0
	nowMillis := time.Now().UnixMilli()
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry CacheEntry
		expired := json.Unmarshal(data, &entry) != nil ||
			time.Duration(nowMillis-entry.StoredAt)*time.Millisecond > dc.ttl
		if expired {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}

	tmps, _ := filepath.Glob(filepath.Join(dc.dir, "*.tmp"))
	for _, path := range tmps {
		if strings.HasSuffix(path, ".json.tmp") && os.Remove(path) == nil {
			removed++
		}
	}

	return removed, nil
}

func (dc *DiskCache) path(key string) string {
	return filepath.Join(dc.dir, key+".json")
}
