// Package syncgate rate-limits the two remote planner operations. The
// authoritative check is always a fresh timestamp comparison at the
// moment of the attempt; countdowns derived from the same timestamps
// are for display only.
package syncgate

import (
	"context"
	"fmt"
	"time"

	"dayplan/internal/localstore"
	"dayplan/internal/planner"
)

// Cooldown windows between successful operations.
const (
	DefaultSyncEvery = time.Hour
	DefaultLoadEvery = 12 * time.Hour
)

// Remote is the server side of push and pull. A missing server planner
// surfaces as planner.ErrNotFound.
type Remote interface {
	PushPlanner(ctx context.Context, user planner.User, doc planner.Document) error
	FetchPlanner(ctx context.Context, userID string) (planner.Document, error)
}

// Gate wraps Remote with per-operation cooldowns backed by Store
// timestamps. A rejected attempt never reaches the network, and a
// failed network call never consumes the cooldown.
type Gate struct {
	Store  *localstore.Store
	Remote Remote

	SyncEvery time.Duration
	LoadEvery time.Duration

	// Now is the gate clock; defaults to time.Now.
	Now func() time.Time
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Gate) syncEvery() time.Duration {
	if g.SyncEvery > 0 {
		return g.SyncEvery
	}
	return DefaultSyncEvery
}

func (g *Gate) loadEvery() time.Duration {
	if g.LoadEvery > 0 {
		return g.LoadEvery
	}
	return DefaultLoadEvery
}

// Push uploads every locally stored date for the user. On success the
// push timestamp is stamped before returning, so an immediate retry is
// already on cooldown.
func (g *Gate) Push(ctx context.Context, user planner.User) error {
	if remaining := remaining(g.Store.LastSync(user.ID), g.syncEvery(), g.now()); remaining > 0 {
		return &planner.CooldownError{Remaining: remaining}
	}

	doc := g.Store.CollectDocument(user.ID)
	if err := g.Remote.PushPlanner(ctx, user, doc); err != nil {
		return fmt.Errorf("push planner: %w", err)
	}

	g.Store.SetLastSync(user.ID, g.now())
	return nil
}

// Pull downloads the server document and overwrites each local
// per-date entry. Not-found passes through untouched and, like any
// other failure, leaves the cooldown unconsumed.
func (g *Gate) Pull(ctx context.Context, userID string) error {
	if remaining := remaining(g.Store.LastLoad(userID), g.loadEvery(), g.now()); remaining > 0 {
		return &planner.CooldownError{Remaining: remaining}
	}

	doc, err := g.Remote.FetchPlanner(ctx, userID)
	if err != nil {
		return err
	}

	for date, rec := range doc {
		g.Store.SavePlannerData(userID, date, rec)
	}

	g.Store.SetLastLoad(userID, g.now())
	return nil
}

// PushRemaining is the advisory wait before the next push is allowed;
// zero when a push may be attempted now.
func (g *Gate) PushRemaining(userID string) time.Duration {
	return remaining(g.Store.LastSync(userID), g.syncEvery(), g.now())
}

// PullRemaining is the advisory wait before the next pull is allowed.
func (g *Gate) PullRemaining(userID string) time.Duration {
	return remaining(g.Store.LastLoad(userID), g.loadEvery(), g.now())
}

func remaining(last time.Time, every time.Duration, now time.Time) time.Duration {
	if last.IsZero() {
		return 0
	}
	left := every - now.Sub(last)
	if left < 0 {
		return 0
	}
	return left
}
