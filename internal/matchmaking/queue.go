package matchmaking

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/logger"
	"tictactoe_online/internal/room"
	"tictactoe_online/internal/store"
)

// queueKey is the single well-known slot all searching players race on.
const queueKey = "queue/waitingPlayer"

// claimRetryDelay paces retries after losing a slot transaction.
const claimRetryDelay = 500 * time.Millisecond

var (
	ErrNoPlayersFound = errors.New("no players found")
	ErrCancelled      = errors.New("search cancelled")
)

// Match is the outcome of a successful pairing.
type Match struct {
	RoomID string
	Symbol game.Symbol
}

// Options tune the queue. Zero delays disable the UI pacing wait.
type Options struct {
	// Timeout bounds how long a Waiting slot is held before the search
	// gives up. Defaults to 20 seconds.
	Timeout time.Duration
	// MinDelay/MaxDelay bound the artificial "finding player" pacing.
	// The pacing never delays race resolution, only the final return.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Queue pairs two searching players through the shared queue slot. At
// most one logical Waiting identity exists in the slot at any instant;
// every Waiting→Matched→deleted edge is a single transaction, so of two
// racing claims exactly one commits.
type Queue struct {
	store store.Store
	opts  Options
}

func NewQueue(s store.Store, opts Options) *Queue {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &Queue{store: s, opts: opts}
}

// FindMatch blocks until a match is made, the timeout expires, or ctx
// is cancelled. The player who claims a Waiting opponent creates the
// room and plays X; the player who was waiting joins it as O.
func (q *Queue) FindMatch(ctx context.Context, me domain.Player) (*Match, error) {
	start := time.Now()
	pacing := q.pacingDelay()
	deadline := start.Add(q.opts.Timeout)

	for {
		res, err := q.store.Transaction(ctx, queueKey, func(cur []byte) ([]byte, error) {
			if cur == nil {
				// queue is empty, wait in it
				return json.Marshal(domain.QueueSlot{
					UID:       me.UID,
					Name:      me.Name,
					Timestamp: time.Now().UnixMilli(),
				})
			}

			var slot domain.QueueSlot
			if err := json.Unmarshal(cur, &slot); err != nil {
				return nil, err
			}
			if slot.Matched() {
				if time.Since(time.UnixMilli(slot.Timestamp)) > q.opts.Timeout {
					// the waiter never collected its claim; evict the
					// dead handoff and wait in its place
					return json.Marshal(domain.QueueSlot{
						UID:       me.UID,
						Name:      me.Name,
						Timestamp: time.Now().UnixMilli(),
					})
				}
				// mid-handoff
				return nil, store.ErrAbort
			}
			if slot.UID == me.UID {
				// our own stale entry
				return nil, store.ErrAbort
			}

			// someone is waiting: claim them. The fresh timestamp dates
			// the handoff, so an abandoned Matched slot can be aged out.
			slot.Matcher = &domain.Player{UID: me.UID, Name: me.Name}
			slot.RoomID = room.NewID()
			slot.Timestamp = time.Now().UnixMilli()
			return json.Marshal(slot)
		})
		if err != nil {
			return nil, err
		}

		if !res.Committed {
			select {
			case <-ctx.Done():
				return nil, ErrCancelled
			case <-time.After(claimRetryDelay):
			}
			if time.Now().After(deadline) {
				// drains an own stale Waiting slot too
				q.removeOwnSlot(me)
				return nil, ErrNoPlayersFound
			}
			continue
		}

		var slot domain.QueueSlot
		if err := json.Unmarshal(res.Value, &slot); err != nil {
			return nil, err
		}

		if slot.Matched() {
			// we claimed the waiting player: create the room, play X
			opponent := domain.Player{UID: slot.UID, Name: slot.Name}
			if err := room.CreateMatched(ctx, q.store, slot.RoomID, me, opponent); err != nil {
				return nil, err
			}
			logger.Info("matched as creator", "room", slot.RoomID, "opponent", opponent.Name)
			q.pace(ctx, start, pacing)
			return &Match{RoomID: slot.RoomID, Symbol: game.X}, nil
		}

		// we are now waiting: watch the slot until a matcher claims it
		return q.waitForMatch(ctx, me, start, pacing, deadline)
	}
}

// waitForMatch subscribes to the queue slot and resolves once it turns
// Matched for us. The waiter is the designated deleter of the slot.
func (q *Queue) waitForMatch(ctx context.Context, me domain.Player, start time.Time, pacing time.Duration, deadline time.Time) (*Match, error) {
	updates := make(chan *domain.QueueSlot, 16)
	sub, err := q.store.Subscribe(ctx, queueKey, func(doc []byte) {
		var slot *domain.QueueSlot
		if doc != nil {
			slot = &domain.QueueSlot{}
			if err := json.Unmarshal(doc, slot); err != nil {
				logger.Warn("bad queue slot document", "error", err)
				return
			}
		}
		select {
		case updates <- slot:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	timeout := time.NewTimer(time.Until(deadline))
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			q.removeOwnSlot(me)
			return nil, ErrCancelled

		case <-timeout.C:
			q.removeOwnSlot(me)
			return nil, ErrNoPlayersFound

		case slot := <-updates:
			if slot == nil {
				// slot vanished under us: someone cancelled the search
				return nil, ErrCancelled
			}
			if !slot.Matched() || slot.UID != me.UID {
				// stale or foreign slot, keep waiting
				continue
			}
			roomID := slot.RoomID
			opponent := slot.Matcher.Name
			if err := q.store.Delete(ctx, queueKey); err != nil {
				logger.Warn("queue slot delete failed", "error", err)
			}
			logger.Info("matched as joiner", "room", roomID, "opponent", opponent)
			q.pace(ctx, start, pacing)
			return &Match{RoomID: roomID, Symbol: game.O}, nil
		}
	}
}

// Cancel removes our entry, if we own it. The waiter stays the
// designated deleter of its slot after a matcher claims it, so a
// Matched slot is removed too; leaving it behind would block every
// later claim attempt.
func (q *Queue) Cancel(ctx context.Context, me domain.Player) error {
	_, err := q.store.Transaction(ctx, queueKey, func(cur []byte) ([]byte, error) {
		if cur == nil {
			return nil, store.ErrAbort
		}
		var slot domain.QueueSlot
		if err := json.Unmarshal(cur, &slot); err != nil {
			return nil, err
		}
		if slot.UID != me.UID {
			return nil, store.ErrAbort
		}
		return nil, nil // delete
	})
	return err
}

func (q *Queue) removeOwnSlot(me domain.Player) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Cancel(ctx, me); err != nil {
		logger.Warn("queue cleanup failed", "uid", me.UID, "error", err)
	}
}

func (q *Queue) pacingDelay() time.Duration {
	if q.opts.MaxDelay <= q.opts.MinDelay {
		return q.opts.MinDelay
	}
	return q.opts.MinDelay + time.Duration(rand.Int63n(int64(q.opts.MaxDelay-q.opts.MinDelay)))
}

// pace holds the caller until the minimum "finding player" time has
// passed. Matching has already resolved by the time this runs.
func (q *Queue) pace(ctx context.Context, start time.Time, delay time.Duration) {
	remaining := delay - time.Since(start)
	if remaining <= 0 {
		return
	}
	select {
	case <-time.After(remaining):
	case <-ctx.Done():
	}
}
