package registry

import (
	"encoding/json"
	"log/slog"
	"sync"

	"osborne-sync-server/domain"
)

type room struct {
	content string
	members map[string]domain.Connection
}

// Registry maps room codes to rooms. A single mutex serializes joins,
// leaves, and updates so that leave-then-join on room switches is atomic.
type Registry struct {
	maxMembers int

	mu     sync.RWMutex
	rooms  map[string]*room
	byConn map[string]string
}

// New returns an empty registry. maxMembers bounds the member set of each
// room; zero or negative means unbounded.
func New(maxMembers int) *Registry {
	return &Registry{
		maxMembers: maxMembers,
		rooms:      make(map[string]*room),
		byConn:     make(map[string]string),
	}
}

func (r *Registry) Join(conn domain.Connection, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rm, ok := r.rooms[code]; ok && r.maxMembers > 0 {
		if _, member := rm.members[conn.ID()]; !member && len(rm.members) >= r.maxMembers {
			return domain.ErrRoomFull
		}
	}

	// Rejoining the same code is a leave followed by a join: a sole member
	// rejoining tears the room down first and starts from empty content.
	r.leaveLocked(conn)

	rm := r.getOrCreate(code)
	rm.members[conn.ID()] = conn
	r.byConn[conn.ID()] = code

	slog.Info("client joined room", "room", code, "clientId", conn.ID(), "members", len(rm.members))

	// The snapshot is enqueued under the registry lock so that no relay of a
	// later update can reach the joiner ahead of it.
	reply, err := json.Marshal(domain.Message{
		Type:    domain.TypeInitialContent,
		Content: rm.content,
		Code:    code,
	})
	if err != nil {
		slog.Error("marshal error", "room", code, "clientId", conn.ID(), "error", err)
		return nil
	}
	if err := conn.Send(reply); err != nil {
		slog.Warn("initial-content not delivered", "room", code, "clientId", conn.ID(), "error", err)
	}
	return nil
}

func (r *Registry) Leave(conn domain.Connection) {
	r.mu.Lock()
	r.leaveLocked(conn)
	r.mu.Unlock()
}

func (r *Registry) Update(conn domain.Connection, content string, raw []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.byConn[conn.ID()]
	if !ok {
		return false
	}

	rm := r.rooms[code]
	rm.content = content

	// Fire-and-forget fan-out: Send never blocks, and a member that cannot
	// accept the frame is skipped; its own disconnect cleans up membership.
	for id, member := range rm.members {
		if id == conn.ID() {
			continue
		}
		if err := member.Send(raw); err != nil {
			slog.Debug("skipped unwritable member", "room", code, "clientId", id, "error", err)
		}
	}
	return true
}

// Lookup returns the current content and member count of the room named
// code, reporting whether the room exists.
func (r *Registry) Lookup(code string) (content string, members int, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[code]
	if !ok {
		return "", 0, false
	}
	return rm.content, len(rm.members), true
}

func (r *Registry) Stats() (rooms, clients int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms = len(r.rooms)
	clients = len(r.byConn)
	return rooms, clients
}

func (r *Registry) getOrCreate(code string) *room {
	rm, ok := r.rooms[code]
	if !ok {
		rm = &room{members: make(map[string]domain.Connection)}
		r.rooms[code] = rm
		slog.Info("room created", "room", code)
	}
	return rm
}

func (r *Registry) leaveLocked(conn domain.Connection) {
	code, ok := r.byConn[conn.ID()]
	if !ok {
		return
	}
	delete(r.byConn, conn.ID())

	rm, ok := r.rooms[code]
	if !ok {
		return
	}
	delete(rm.members, conn.ID())

	if len(rm.members) == 0 {
		delete(r.rooms, code)
		slog.Info("room removed", "room", code)
		return
	}
	slog.Info("client left room", "room", code, "clientId", conn.ID(), "members", len(rm.members))
}
