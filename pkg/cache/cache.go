// Package cache stores small byte payloads behind a common interface.
//
// The CLI uses [FileCache] under the XDG cache directory; the API server
// uses [RedisCache] so every replica sees the same entries. [NullCache]
// disables caching. Keys come from a [Keyer] so the layout of the key space
// is decided in one place:
//
//	c, _ := cache.NewFileCache(dir)
//	key := cache.NewDefaultKeyer().AuditKey("gemini-3-flash-preview", text)
//	if data, ok, _ := c.Get(ctx, key); ok { ... }
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/moto/pkg/observability"
)

// Cache is a key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired entries
	// are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the cache's resources.
	Close() error
}

// GetJSON loads key into v. keyType labels the lookup for cache hooks.
func GetJSON(ctx context.Context, c Cache, keyType, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Entries written by an older schema are dropped and refetched.
		_ = c.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false, nil
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true, nil
}

// SetJSON stores v under key.
func SetJSON(ctx context.Context, c Cache, keyType, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}

// Keyer builds cache keys.
type Keyer interface {
	// AuditKey identifies an audit result by model and normalized description.
	AuditKey(model, description string) string

	// SnapshotKey identifies a rendered stream frame.
	SnapshotKey(opts SnapshotKeyOpts) string
}

// SnapshotKeyOpts are the inputs that change a rendered frame.
type SnapshotKeyOpts struct {
	Width     int           `json:"w"`
	Seed      uint64        `json:"seed"`
	At        time.Duration `json:"at"` // stream time the frame was taken at
	Format    string        `json:"fmt"`
	Particles bool          `json:"particles"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AuditKey hashes the model and the whitespace-normalized description, so
// trivially different inputs share a result.
func (DefaultKeyer) AuditKey(model, description string) string {
	return hashKey("audit", model, normalize(description))
}

// SnapshotKey hashes the frame options.
func (DefaultKeyer) SnapshotKey(opts SnapshotKeyOpts) string {
	return hashKey("snapshot", opts)
}
