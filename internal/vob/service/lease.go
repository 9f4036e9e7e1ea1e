package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// leaseTTL bounds how long a verification lease can be held if the worker
// dies mid-flight. Upstream calls time out well before this.
const leaseTTL = 2 * time.Minute

// VerificationLease serializes verification attempts per lead. At most one
// in-flight verification per lead id across all API and worker processes.
type VerificationLease struct {
	rdb *redis.Client
}

func NewVerificationLease(rdb *redis.Client) *VerificationLease {
	return &VerificationLease{rdb: rdb}
}

func leaseKey(leadID uuid.UUID) string {
	return "vob:verify:lease:" + leadID.String()
}

// Acquire takes the per-lead lease. Returns false when another verification
// for the same lead is already in flight.
func (l *VerificationLease) Acquire(ctx context.Context, leadID uuid.UUID) (bool, error) {
	return l.rdb.SetNX(ctx, leaseKey(leadID), time.Now().UTC().Format(time.RFC3339), leaseTTL).Result()
}

// Release frees the lease after the verification attempt completes.
func (l *VerificationLease) Release(ctx context.Context, leadID uuid.UUID) error {
	return l.rdb.Del(ctx, leaseKey(leadID)).Err()
}
