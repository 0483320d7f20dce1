package event

import (
	"encoding/hex"
	"fmt"

	sha256 "github.com/minio/sha256-simd"
)

// IdentityHash is a stable digest identifying one platform event
// regardless of delivery path. Two events with the same hash are the same
// event for deduplication purposes.
type IdentityHash string

// ComputeIdentityHash digests (event-id, author-id, channel-id,
// creation-timestamp). Timestamps are truncated to milliseconds so that
// re-deliveries which round-trip through JSON still collide.
func ComputeIdentityHash(e *InboundEvent) IdentityHash {
	composite := fmt.Sprintf("%s|%s|%s|%d", e.ID, e.AuthorID, e.ChannelID, e.CreatedAt.UnixMilli())
	sum := sha256.Sum256([]byte(composite))
	return IdentityHash(hex.EncodeToString(sum[:]))
}
