package shared

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cache is a shared, short-TTL key/value store. Values are JSON encoded.
type Cache interface {
	// Get decodes the value into dst and reports whether the key existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

func TrustDiscountKey(ownerID, userID uuid.UUID) string {
	return fmt.Sprintf("trust_discount:%s:%s", ownerID, userID)
}

func AccessiblePropertiesKey(userID uuid.UUID) string {
	return "user_accessible_properties:" + userID.String()
}

func ExternalCalendarKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "ical_ranges:" + hex.EncodeToString(sum[:])
}

// CalendarFeedPrefix covers every cached export variant of one property.
func CalendarFeedPrefix(propertyID uuid.UUID) string {
	return "calendar_feed:" + propertyID.String() + ":"
}

func CalendarFeedKey(propertyID uuid.UUID, includePending bool) string {
	return fmt.Sprintf("%spending=%t", CalendarFeedPrefix(propertyID), includePending)
}

const ChannelTokenKey = "beds24_access_token"
