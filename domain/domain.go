package domain

import "errors"

const (
	TypeJoinRoom       = "join-room"
	TypeTextUpdate     = "text-update"
	TypeInitialContent = "initial-content"
	TypePing           = "ping"
)

// ErrRoomFull is returned by Registry.Join when the target room is at its
// configured member capacity.
var ErrRoomFull = errors.New("room is at member capacity")

// Message is the shape of every frame on the wire, one JSON object per text
// frame. Which fields carry meaning depends on Type; server-sent frames
// always include code and the full document content, never a delta.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Code    string `json:"code"`
}

// Connection is one client's session as seen by the registry and protocol
// layers: an identity and a writable outbound half.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registry owns the room-code-to-room mapping and serializes membership and
// content mutation against concurrent connections. A connection is a member
// of at most one room at a time.
type Registry interface {
	// Join moves conn into the room named code, creating the room when
	// absent and leaving conn's previous room first. Exactly one
	// initial-content frame carrying the room's content at the instant of
	// joining is delivered to conn before any relay from the new room can
	// reach it.
	Join(conn Connection, code string) error

	// Leave removes conn from its current room, if any. Rooms are deleted
	// the moment their last member leaves. Safe to call for connections
	// that never joined.
	Leave(conn Connection)

	// Update overwrites the content of conn's current room and relays raw
	// to every other member. It reports false when conn has no current
	// room.
	Update(conn Connection, content string, raw []byte) bool

	Stats() (rooms, clients int)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
}
