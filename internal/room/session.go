package room

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/logger"
	"tictactoe_online/internal/store"
)

// StatsRecorder receives each finished game exactly once, after the
// session wins the transactional claim of the statsUpdated flag.
type StatsRecorder interface {
	RecordResult(ctx context.Context, roomID string, r *domain.Room)
}

// Event is one observed room change, delivered in commit order.
type Event struct {
	State State
	Room  *domain.Room // nil once the room is closed
}

// Options tune a session.
type Options struct {
	// TurnTimeout is the local countdown before an automatic move.
	// Defaults to 15 seconds.
	TurnTimeout time.Duration
	// AutoMove arms the turn timer. Off by default so protocol tests
	// control every move.
	AutoMove bool
	// Stats, when set on the creator's session, records finished games.
	Stats StatsRecorder
}

// Session drives one player's side of a room: the subscribe loop, the
// move transactions, the turn timer and the rematch handshake. The
// subscribed value is the only authority; the session never trusts its
// own optimistic copy.
type Session struct {
	store  store.Store
	roomID string
	me     domain.Player
	symbol game.Symbol
	opts   Options

	timer  TurnTimer
	events chan Event
	sub    store.Subscription

	mu      sync.Mutex
	current *domain.Room

	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

func NewSession(s store.Store, roomID string, me domain.Player, symbol game.Symbol, opts Options) *Session {
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = 15 * time.Second
	}
	return &Session{
		store:  s,
		roomID: roomID,
		me:     me,
		symbol: symbol,
		opts:   opts,
		events: make(chan Event, 32),
		done:   make(chan struct{}),
	}
}

func (s *Session) RoomID() string       { return s.roomID }
func (s *Session) Symbol() game.Symbol  { return s.symbol }
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed once the room record disappears.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start registers disconnect cleanup and begins the subscribe loop.
func (s *Session) Start(ctx context.Context) error {
	s.store.RegisterDisconnectCleanup(Key(s.roomID))
	sub, err := s.store.Subscribe(ctx, Key(s.roomID), s.onUpdate)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

// Close stops the subscribe loop and the timer. It does not touch the
// shared record; CloseRoom does that.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.timer.Stop()
		if s.sub != nil {
			s.sub.Close()
		}
		s.markDone()
	})
}

// CloseRoom deletes the shared room record, ending the match for both
// players.
func (s *Session) CloseRoom(ctx context.Context) error {
	return s.store.Delete(ctx, Key(s.roomID))
}

// Snapshot returns the last subscribed room record.
func (s *Session) Snapshot() *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) onUpdate(doc []byte) {
	if doc == nil {
		s.timer.Stop()
		s.setCurrent(nil)
		s.emit(Event{State: StateClosed})
		s.markDone()
		return
	}

	var r domain.Room
	if err := json.Unmarshal(doc, &r); err != nil {
		logger.Warn("bad room document", "room", s.roomID, "error", err)
		return
	}
	s.setCurrent(&r)
	st := StateOf(&r)

	if s.opts.AutoMove && st == StateInProgress && r.Turn == s.symbol {
		s.timer.Reset(s.opts.TurnTimeout, s.autoMove)
	} else {
		s.timer.Stop()
	}

	// the creator is the designated writer for one-time side effects
	if s.symbol == game.X && r.GameOver && !r.StatsUpdated {
		s.claimStats()
	}
	if s.symbol == game.X && st == StateRematchPending && r.Rematch[game.X] && r.Rematch[game.O] {
		if _, err := Reset(context.Background(), s.store, s.roomID); err != nil {
			logger.Error("rematch reset failed", "room", s.roomID, "error", err)
		}
	}

	s.emit(Event{State: st, Room: &r})
}

// ApplyMove runs the single atomic move transaction: validate room,
// joiner, turn and cell, write the symbol, flip the turn and detect the
// outcome against the board of this very write. Returns false when the
// transaction aborted; aborts are protocol no-ops, never errors.
func (s *Session) ApplyMove(ctx context.Context, idx int) (bool, error) {
	res, err := s.store.Transaction(ctx, Key(s.roomID), func(cur []byte) ([]byte, error) {
		if cur == nil {
			return nil, store.ErrAbort
		}
		var r domain.Room
		if err := json.Unmarshal(cur, &r); err != nil {
			return nil, err
		}

		if r.GameOver || r.Joiner == nil || r.Turn != s.symbol {
			return nil, store.ErrAbort
		}
		if !game.LegalMove(r.Board, idx) {
			return nil, store.ErrAbort
		}

		r.Board[idx] = s.symbol
		r.Turn = s.symbol.Opponent()
		r.LastMove = time.Now().UnixMilli()

		if out := game.DetectOutcome(r.Board); out.Over() {
			r.GameOver = true
			r.Winner = out.Winner
			r.WinLine = out.Line
		}
		return json.Marshal(r)
	})
	if err != nil {
		return false, err
	}
	return res.Committed, nil
}

// autoMove plays a uniformly random empty cell when the turn timer
// expires. The occupied-cell check inside ApplyMove resolves the race
// against a simultaneous human move.
func (s *Session) autoMove() {
	r := s.Snapshot()
	if r == nil || r.GameOver || r.Turn != s.symbol {
		return
	}
	empties := game.EmptyCells(r.Board)
	if len(empties) == 0 {
		return
	}
	idx := empties[rand.Intn(len(empties))]

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	committed, err := s.ApplyMove(ctx, idx)
	if err != nil {
		logger.Error("auto move failed", "room", s.roomID, "error", err)
		return
	}
	logger.Info("auto move", "room", s.roomID, "symbol", s.symbol, "cell", idx, "committed", committed)
}

// claimStats atomically takes ownership of the statsUpdated flag. Only
// the one session whose claim commits runs the recorder, so concurrent
// finishers cannot double-count.
func (s *Session) claimStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.store.Transaction(ctx, Key(s.roomID), func(cur []byte) ([]byte, error) {
		if cur == nil {
			return nil, store.ErrAbort
		}
		var r domain.Room
		if err := json.Unmarshal(cur, &r); err != nil {
			return nil, err
		}
		if !r.GameOver || r.StatsUpdated {
			return nil, store.ErrAbort
		}
		r.StatsUpdated = true
		return json.Marshal(r)
	})
	if err != nil {
		logger.Error("stats claim failed", "room", s.roomID, "error", err)
		return
	}
	if !res.Committed || s.opts.Stats == nil {
		return
	}

	var r domain.Room
	if err := json.Unmarshal(res.Value, &r); err != nil {
		return
	}
	s.opts.Stats.RecordResult(ctx, s.roomID, &r)
}

func (s *Session) setCurrent(r *domain.Room) {
	s.mu.Lock()
	s.current = r
	s.mu.Unlock()
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		logger.Warn("event dropped, slow consumer", "room", s.roomID)
	}
}

func (s *Session) markDone() {
	s.doneOnce.Do(func() { close(s.done) })
}
