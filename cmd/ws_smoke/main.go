package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/game"
	"tictactoe_online/internal/service"
	"tictactoe_online/internal/ws"
)

// Smoke driver: connects two clients to a running server, runs
// matchmaking and plays a full game by always taking the first empty
// cell. Fails loudly on anything unexpected.
func main() {
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}
	service.InitJWT()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	a := connect(port, domain.Player{UID: "smoke_a", Name: "SmokeA"})
	defer a.conn.Close()
	b := connect(port, domain.Player{UID: "smoke_b", Name: "SmokeB"})
	defer b.conn.Close()

	a.send(ws.MsgFindMatch, nil)
	b.send(ws.MsgFindMatch, nil)

	clients := map[game.Symbol]*smokeClient{}
	for _, c := range []*smokeClient{a, b} {
		m := c.waitFor(ws.MsgMatched, 40*time.Second)
		var p ws.MatchedPayload
		mustUnmarshal(m.Payload, &p)
		log.Printf("%s matched: room=%s symbol=%s", c.name, p.RoomID, p.Symbol)
		c.symbol = p.Symbol
		clients[p.Symbol] = c
	}
	if clients[game.X] == nil || clients[game.O] == nil {
		log.Fatal("expected one X and one O")
	}

	for {
		st := waitForStateChange(a, b)
		if st.Room.GameOver {
			log.Printf("game over: winner=%s line=%v", st.Room.Winner, st.Room.WinLine)
			fmt.Println("ws smoke ok")
			return
		}
		mover := clients[st.Room.Turn]
		empties := game.EmptyCells(st.Room.Board)
		payload, _ := json.Marshal(ws.MovePayload{Index: empties[0]})
		mover.send(ws.MsgMove, payload)
	}
}

type smokeClient struct {
	name   string
	conn   *websocket.Conn
	symbol game.Symbol
}

func connect(port string, p domain.Player) *smokeClient {
	token, err := service.GenerateIdentityToken(p)
	if err != nil {
		log.Fatalf("token for %s: %v", p.Name, err)
	}

	url := fmt.Sprintf("ws://localhost:%s/ws?token=%s", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", p.Name, err)
	}

	c := &smokeClient{name: p.Name, conn: conn}
	c.waitFor(ws.MsgReady, 5*time.Second)
	return c
}

func (c *smokeClient) send(msgType string, payload json.RawMessage) {
	data, _ := json.Marshal(ws.Message{Type: msgType, Payload: payload})
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Fatalf("%s write: %v", c.name, err)
	}
}

func (c *smokeClient) waitFor(msgType string, timeout time.Duration) ws.Message {
	deadline := time.Now().Add(timeout)
	for {
		c.conn.SetReadDeadline(deadline)
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			log.Fatalf("%s waiting for %s: %v", c.name, msgType, err)
		}
		var m ws.Message
		mustUnmarshal(raw, &m)
		if m.Type == msgType {
			return m
		}
		log.Printf("%s skipping %s", c.name, m.Type)
	}
}

// waitForStateChange reads from whichever client holds the turn next;
// both receive every state, reading one is enough to drive the game.
func waitForStateChange(a, b *smokeClient) ws.StatePayload {
	m := a.waitFor(ws.MsgState, 20*time.Second)
	var st ws.StatePayload
	mustUnmarshal(m.Payload, &st)

	// drain b's copy so its buffer does not grow
	mb := b.waitFor(ws.MsgState, 20*time.Second)
	var stb ws.StatePayload
	mustUnmarshal(mb.Payload, &stb)

	return st
}

func mustUnmarshal(raw []byte, v any) {
	if err := json.Unmarshal(raw, v); err != nil {
		log.Fatalf("unmarshal: %v", err)
	}
}
