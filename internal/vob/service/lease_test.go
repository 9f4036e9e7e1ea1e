package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestLease(t *testing.T) (*VerificationLease, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewVerificationLease(rdb), mr
}

func TestLease_SecondAcquireBlocked(t *testing.T) {
	lease, _ := newTestLease(t)
	leadID := uuid.New()
	ctx := context.Background()

	ok, err := lease.Acquire(ctx, leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("first acquire should succeed")
	}

	ok, err = lease.Acquire(ctx, leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("second acquire for the same lead must be blocked")
	}
}

func TestLease_IndependentPerLead(t *testing.T) {
	lease, _ := newTestLease(t)
	ctx := context.Background()

	if ok, _ := lease.Acquire(ctx, uuid.New()); !ok {
		t.Fatal("first lead acquire should succeed")
	}
	if ok, _ := lease.Acquire(ctx, uuid.New()); !ok {
		t.Fatal("a different lead must not be blocked")
	}
}

func TestLease_ReleaseAllowsReacquire(t *testing.T) {
	lease, _ := newTestLease(t)
	leadID := uuid.New()
	ctx := context.Background()

	if ok, _ := lease.Acquire(ctx, leadID); !ok {
		t.Fatal("acquire should succeed")
	}
	if err := lease.Release(ctx, leadID); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if ok, _ := lease.Acquire(ctx, leadID); !ok {
		t.Fatal("acquire after release should succeed")
	}
}

func TestLease_ExpiresIfHolderDies(t *testing.T) {
	lease, mr := newTestLease(t)
	leadID := uuid.New()
	ctx := context.Background()

	if ok, _ := lease.Acquire(ctx, leadID); !ok {
		t.Fatal("acquire should succeed")
	}

	mr.FastForward(leaseTTL)

	if ok, _ := lease.Acquire(ctx, leadID); !ok {
		t.Fatal("lease should expire after its TTL")
	}
}
