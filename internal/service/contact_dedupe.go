package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hakchin/ppst/internal/models"
)

// DefaultDedupeTTL is how long an identical submission is remembered.
const DefaultDedupeTTL = 5 * time.Minute

// DuplicateGuard detects a submission identical to one seen recently.
type DuplicateGuard interface {
	Seen(ctx context.Context, fields models.ContactFields) (bool, error)
}

// RedisDuplicateGuard remembers submission checksums in Redis with a TTL.
type RedisDuplicateGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDuplicateGuard constructs a guard. A non-positive ttl uses DefaultDedupeTTL.
func NewRedisDuplicateGuard(client *redis.Client, ttl time.Duration) *RedisDuplicateGuard {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &RedisDuplicateGuard{client: client, ttl: ttl}
}

// Seen records the checksum of fields and reports whether it was already present.
func (g *RedisDuplicateGuard) Seen(ctx context.Context, fields models.ContactFields) (bool, error) {
	key := fmt.Sprintf("contact:dedupe:%s", contactChecksum(fields))
	stored, err := g.client.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		return false, err
	}
	return !stored, nil
}

func contactChecksum(fields models.ContactFields) string {
	return computeChecksum(fields.Name, deref(fields.Phone), deref(fields.Email), fields.Message)
}

func computeChecksum(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(strings.TrimSpace(strings.ToLower(part))))
		hasher.Write([]byte("|"))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
