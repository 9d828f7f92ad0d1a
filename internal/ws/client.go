package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/logger"
	"tictactoe_online/internal/matchmaking"
	"tictactoe_online/internal/metrics"
	"tictactoe_online/internal/room"
	"tictactoe_online/internal/store"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Client is one browser connection's agent. It performs the player's
// side of every protocol (matchmaking, moves, rematch) against the
// shared store; nothing here is trusted by the opponent beyond what the
// store transactions enforce.
type Client struct {
	player domain.Player
	conn   *websocket.Conn
	store  store.Store // session-scoped wrapper over the shared store
	queue  *matchmaking.Queue
	stats  room.StatsRecorder

	turnTimeout time.Duration

	send chan []byte
	done chan struct{}

	mu           sync.Mutex
	session      *room.Session
	cancelSearch context.CancelFunc
}

func NewClient(player domain.Player, conn *websocket.Conn, shared store.Store, queue *matchmaking.Queue, stats room.StatsRecorder, turnTimeout time.Duration) *Client {
	return &Client{
		player:      player,
		conn:        conn,
		store:       store.Scoped(shared),
		queue:       queue,
		stats:       stats,
		turnTimeout: turnTimeout,
		send:        make(chan []byte, 64),
		done:        make(chan struct{}),
	}
}

func (c *Client) Run() {
	go c.writePump()

	c.sendMsg(MsgReady, nil)
	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	c.readPump()
}

func (c *Client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			logger.Debug("read closed", "uid", c.player.UID, "error", err)
			return
		}
		c.handleMessage(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.Type {
	case MsgFindMatch:
		c.startSearch()

	case MsgCancelSearch:
		c.stopSearch()

	case MsgCreateRoom:
		roomID, err := room.CreatePrivate(ctx, c.store, c.player)
		if err != nil {
			c.sendError("could not create room")
			return
		}
		c.attach(roomID, game.X)

	case MsgJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.RoomID == "" {
			c.sendError("room id required")
			return
		}
		sym, err := room.Join(ctx, c.store, p.RoomID, c.player)
		switch {
		case errors.Is(err, room.ErrNotFound):
			c.sendError("room not found")
		case errors.Is(err, room.ErrRoomFull):
			c.sendError("room is full")
		case err != nil:
			c.sendError("could not join room")
		default:
			c.attach(p.RoomID, sym)
		}

	case MsgMove:
		var p MovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError("bad move")
			return
		}
		sess := c.currentSession()
		if sess == nil {
			c.sendError("not in a room")
			return
		}
		committed, err := sess.ApplyMove(ctx, p.Index)
		if err != nil {
			c.sendError("move failed")
			return
		}
		if committed {
			metrics.MovesTotal.Inc()
		} else {
			// rejected inside the transaction: out of turn, occupied
			// cell or finished game. The next subscribed state is the
			// answer, so nothing is reported back.
			metrics.MoveConflictsTotal.Inc()
		}

	case MsgRematch:
		sess := c.currentSession()
		if sess == nil {
			c.sendError("not in a room")
			return
		}
		if err := sess.VoteRematch(ctx); err != nil && !errors.Is(err, room.ErrNotFound) {
			c.sendError("rematch failed")
		}

	case MsgCloseRoom:
		sess := c.detachSession()
		if sess == nil {
			return
		}
		if err := sess.CloseRoom(ctx); err != nil {
			logger.Warn("room close failed", "room", sess.RoomID(), "error", err)
		}
		sess.Close()

	default:
		c.sendError("unknown message type")
	}
}

// startSearch runs matchmaking off the read loop so the player can
// still cancel while waiting in the queue.
func (c *Client) startSearch() {
	c.mu.Lock()
	if c.cancelSearch != nil || c.session != nil {
		c.mu.Unlock()
		c.sendError("already busy")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelSearch = cancel
	c.mu.Unlock()

	c.sendMsg(MsgSearching, nil)

	go func() {
		match, err := c.queue.FindMatch(ctx, c.player)

		c.mu.Lock()
		c.cancelSearch = nil
		c.mu.Unlock()

		switch {
		case errors.Is(err, matchmaking.ErrNoPlayersFound):
			c.sendMsg(MsgQueueTimeout, nil)
		case errors.Is(err, matchmaking.ErrCancelled):
			// the player asked for it, nothing to report
		case err != nil:
			logger.Error("matchmaking failed", "uid", c.player.UID, "error", err)
			c.sendError("matchmaking failed")
		default:
			metrics.MatchesTotal.Inc()
			c.attach(match.RoomID, match.Symbol)
		}
	}()
}

func (c *Client) stopSearch() {
	c.mu.Lock()
	cancel := c.cancelSearch
	c.cancelSearch = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// attach binds this connection to a room session and starts forwarding
// its state to the browser.
func (c *Client) attach(roomID string, sym game.Symbol) {
	sess := room.NewSession(c.store, roomID, c.player, sym, room.Options{
		TurnTimeout: c.turnTimeout,
		AutoMove:    true,
		Stats:       c.stats,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sess.Start(ctx); err != nil {
		c.sendError("could not open room")
		return
	}

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		sess.Close()
		c.sendError("already in a room")
		return
	}
	c.session = sess
	c.mu.Unlock()

	c.sendJSON(MsgMatched, MatchedPayload{RoomID: roomID, Symbol: sym})
	go c.forwardEvents(sess)
}

func (c *Client) forwardEvents(sess *room.Session) {
	for {
		select {
		case ev := <-sess.Events():
			if ev.State == room.StateClosed {
				c.sendMsg(MsgRoomClosed, nil)
				c.detachIf(sess)
				sess.Close()
				return
			}
			c.sendJSON(MsgState, StatePayload{
				RoomID: sess.RoomID(),
				State:  ev.State.String(),
				You:    sess.Symbol(),
				Room:   ev.Room,
			})

		case <-sess.Done():
			// the terminal event can be lost when the buffer is full, so
			// closure is signalled out of band too
			c.sendMsg(MsgRoomClosed, nil)
			c.detachIf(sess)
			sess.Close()
			return

		case <-c.done:
			return
		}
	}
}

func (c *Client) currentSession() *room.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) detachSession() *room.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess := c.session
	c.session = nil
	return sess
}

func (c *Client) detachIf(sess *room.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == sess {
		c.session = nil
	}
}

// teardown runs when the connection drops: stop searching, stop the
// session, and let the scoped store delete whatever this client
// registered for disconnect cleanup (its room record).
func (c *Client) teardown() {
	c.stopSearch()
	if sess := c.detachSession(); sess != nil {
		sess.Close()
	}
	if err := c.store.Close(); err != nil {
		logger.Warn("disconnect cleanup failed", "uid", c.player.UID, "error", err)
	}
	close(c.done)
	_ = c.conn.Close()
}

func (c *Client) sendMsg(msgType string, payload json.RawMessage) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	case <-time.After(writeWait):
		logger.Warn("send timeout", "uid", c.player.UID, "type", msgType)
	}
}

func (c *Client) sendJSON(msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.sendMsg(msgType, raw)
}

func (c *Client) sendError(message string) {
	c.sendJSON(MsgError, ErrorPayload{Message: message})
}
