package ws

import "encoding/json"

const (
	// client → server
	MsgFindMatch    = "find_match"
	MsgCancelSearch = "cancel_search"
	MsgCreateRoom   = "create_room"
	MsgJoinRoom     = "join_room"
	MsgMove         = "move"
	MsgRematch      = "rematch"
	MsgCloseRoom    = "close"

	// server → client
	MsgReady        = "ready"
	MsgSearching    = "searching"
	MsgMatched      = "matched"
	MsgState        = "state"
	MsgRoomClosed   = "room_closed"
	MsgQueueTimeout = "queue_timeout"
	MsgError        = "error"
)

// Message is the envelope both directions use.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
