package protocol

import (
	"encoding/json"
	"errors"
	"log/slog"

	"osborne-sync-server/domain"
)

// Handler decodes inbound frames and dispatches them onto the registry.
// Malformed or unrecognized frames are dropped without closing the
// connection.
type Handler struct {
	registry domain.Registry
}

func NewHandler(r domain.Registry) *Handler {
	return &Handler{registry: r}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid frame", "clientId", conn.ID(), "error", err)
		return
	}

	switch msg.Type {
	case domain.TypeJoinRoom:
		h.handleJoin(conn, msg)
	case domain.TypeTextUpdate:
		// The sender's current room decides where the update lands; the
		// frame's code field travels with the relayed bytes untouched.
		if !h.registry.Update(conn, msg.Content, data) {
			slog.Debug("text-update before join ignored", "clientId", conn.ID())
		}
	case domain.TypePing:
		// Liveness probe; the protocol defines no reply for it.
	default:
		slog.Warn("unknown frame type", "clientId", conn.ID(), "type", msg.Type)
	}
}

func (h *Handler) handleJoin(conn domain.Connection, msg domain.Message) {
	if msg.Code == "" {
		slog.Warn("join-room without code", "clientId", conn.ID())
		return
	}

	if err := h.registry.Join(conn, msg.Code); err != nil {
		if errors.Is(err, domain.ErrRoomFull) {
			slog.Warn("join refused", "room", msg.Code, "clientId", conn.ID(), "error", err)
			return
		}
		slog.Error("join failed", "room", msg.Code, "clientId", conn.ID(), "error", err)
	}
}
