package auth

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// DenyList remembers revoked token ids, and per-subject revocation cutoffs,
// until the affected tokens would have expired. It lives in process memory, so
// revocations do not survive a restart.
type DenyList struct {
	cache *bigcache.BigCache
}

// NewDenyList creates an empty deny-list. Entries are evicted once they are
// older than TokenLifetime.
func NewDenyList(ctx context.Context) (*DenyList, error) {
	cfg := bigcache.DefaultConfig(TokenLifetime)
	cfg.Shards = 64
	cfg.CleanWindow = 5 * time.Minute
	cfg.MaxEntriesInWindow = 10_000
	cfg.MaxEntrySize = 8
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create deny-list cache: %w", err)
	}
	return &DenyList{cache: cache}, nil
}

// Revoke denies the token behind id for the rest of its lifetime.
func (d *DenyList) Revoke(id *Identity) error {
	if id == nil || id.TokenID == "" {
		return fmt.Errorf("%w: no token id to revoke", ErrInvalidToken)
	}
	return d.cache.Set(id.TokenID, []byte{1})
}

// RevokeSubject voids every token of subject issued at or before at.
func (d *DenyList) RevokeSubject(subject string, at time.Time) error {
	if subject == "" {
		return errors.New("no subject to revoke")
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(at.Unix()))
	return d.cache.Set(subjectKey(subject), buf)
}

// RevokedBefore returns the latest cutoff recorded for subject.
func (d *DenyList) RevokedBefore(subject string) (time.Time, bool) {
	buf, err := d.cache.Get(subjectKey(subject))
	if err != nil || len(buf) != 8 {
		return time.Time{}, false
	}
	return time.Unix(int64(binary.BigEndian.Uint64(buf)), 0), true
}

func subjectKey(subject string) string {
	return "sub:" + subject
}

// IsRevoked reports whether tokenID has been revoked.
func (d *DenyList) IsRevoked(tokenID string) bool {
	_, err := d.cache.Get(tokenID)
	return err == nil
}

// Close releases the cache's background cleaner.
func (d *DenyList) Close() error {
	return d.cache.Close()
}
