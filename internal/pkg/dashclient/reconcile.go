package dashclient

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
)

// Snapshot is one full re-fetch of the dashboard state.
type Snapshot struct {
	Counts    notification.Counts
	Recent    []notification.NotificationResponse
	Holidays  holiday.TodayResponse
	FetchedAt time.Time
}

// Reconcile fetches counts, recent notifications and today's holidays in
// parallel. Any failure fails the whole snapshot.
func (c *Client) Reconcile(ctx context.Context, recentLimit int) (Snapshot, error) {
	var snap Snapshot

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := c.Counts(gCtx)
		if err != nil {
			return err
		}
		snap.Counts = counts
		return nil
	})

	g.Go(func() error {
		recent, err := c.Recent(gCtx, recentLimit)
		if err != nil {
			return err
		}
		snap.Recent = recent
		return nil
	})

	g.Go(func() error {
		today, err := c.HolidaysToday(gCtx)
		if err != nil {
			return err
		}
		snap.Holidays = today
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.FetchedAt = time.Now().UTC()
	return snap, nil
}

// Board is the client-side view of the admin dashboard. Snapshots are
// authoritative for counts; notifications merge last-write-wins by Version
// so a live hint newer than a snapshot is not lost.
type Board struct {
	mu       sync.RWMutex
	counts   notification.Counts
	items    map[string]notification.NotificationResponse
	holidays holiday.TodayResponse
	synced   time.Time
}

func NewBoard() *Board {
	return &Board{items: make(map[string]notification.NotificationResponse)}
}

func (b *Board) ApplySnapshot(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counts = s.Counts
	b.holidays = s.Holidays
	b.synced = s.FetchedAt

	next := make(map[string]notification.NotificationResponse, len(s.Recent))
	for _, n := range s.Recent {
		if cur, ok := b.items[n.ID]; ok && cur.Version > n.Version {
			n = cur
		}
		next[n.ID] = n
	}
	b.items = next
}

// ApplyNotification merges one notification carried by a live hint. It
// reports whether the board changed.
func (b *Board) ApplyNotification(n notification.NotificationResponse) bool {
	if n.ID == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.items[n.ID]; ok && cur.Version >= n.Version {
		return false
	}
	b.items[n.ID] = n
	return true
}

func (b *Board) Counts() notification.Counts {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.counts
}

func (b *Board) Holidays() holiday.TodayResponse {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.holidays
}

func (b *Board) LastSynced() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.synced
}

// Recent returns the notifications newest first.
func (b *Board) Recent() []notification.NotificationResponse {
	b.mu.RLock()
	out := make([]notification.NotificationResponse, 0, len(b.items))
	for _, n := range b.items {
		out = append(out, n)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
