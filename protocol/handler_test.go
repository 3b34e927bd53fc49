package protocol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osborne-sync-server/domain"
)

type mockConn struct {
	id   string
	sent [][]byte
	mu   sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) getSent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

type joinCall struct {
	connID string
	code   string
}

type updateCall struct {
	connID  string
	content string
	raw     []byte
}

type mockRegistry struct {
	joins   []joinCall
	updates []updateCall
	joinErr error
	inRoom  bool
	mu      sync.Mutex
}

func (m *mockRegistry) Join(conn domain.Connection, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joins = append(m.joins, joinCall{connID: conn.ID(), code: code})
	return m.joinErr
}

func (m *mockRegistry) Leave(conn domain.Connection) {}

func (m *mockRegistry) Update(conn domain.Connection, content string, raw []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inRoom {
		return false
	}
	m.updates = append(m.updates, updateCall{connID: conn.ID(), content: content, raw: raw})
	return true
}

func (m *mockRegistry) Stats() (int, int) { return 0, 0 }

func (m *mockRegistry) getJoins() []joinCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joins
}

func (m *mockRegistry) getUpdates() []updateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

func TestHandler_JoinDispatchesToRegistry(t *testing.T) {
	reg := &mockRegistry{}
	handler := NewHandler(reg)
	conn := &mockConn{id: "client1"}

	handler.Handle(conn, []byte(`{"type":"join-room","code":"ROOM01"}`))

	joins := reg.getJoins()
	require.Len(t, joins, 1)
	assert.Equal(t, "client1", joins[0].connID)
	assert.Equal(t, "ROOM01", joins[0].code)
}

func TestHandler_JoinRefusedSendsNothing(t *testing.T) {
	reg := &mockRegistry{joinErr: domain.ErrRoomFull}
	handler := NewHandler(reg)
	conn := &mockConn{id: "client1"}

	handler.Handle(conn, []byte(`{"type":"join-room","code":"ROOM01"}`))

	assert.Empty(t, conn.getSent())
}

func TestHandler_JoinWithoutCodeDropped(t *testing.T) {
	reg := &mockRegistry{}
	handler := NewHandler(reg)
	conn := &mockConn{id: "client1"}

	handler.Handle(conn, []byte(`{"type":"join-room"}`))

	assert.Empty(t, reg.getJoins())
	assert.Empty(t, conn.getSent())
}

func TestHandler_TextUpdateRelaysVerbatim(t *testing.T) {
	reg := &mockRegistry{inRoom: true}
	handler := NewHandler(reg)
	conn := &mockConn{id: "client1"}

	raw := []byte(`{"type":"text-update","content":"hello","code":"ROOM01"}`)
	handler.Handle(conn, raw)

	updates := reg.getUpdates()
	require.Len(t, updates, 1)
	assert.Equal(t, "hello", updates[0].content)
	assert.Equal(t, raw, updates[0].raw)
}

func TestHandler_TextUpdateBeforeJoinIgnored(t *testing.T) {
	reg := &mockRegistry{inRoom: false}
	handler := NewHandler(reg)
	conn := &mockConn{id: "client1"}

	handler.Handle(conn, []byte(`{"type":"text-update","content":"hello","code":"ROOM01"}`))

	assert.Empty(t, reg.getUpdates())
	assert.Empty(t, conn.getSent())
}

func TestHandler_DroppedFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "invalid json", frame: []byte("not json")},
		{name: "empty frame", frame: []byte("")},
		{name: "unknown type", frame: []byte(`{"type":"select-all"}`)},
		{name: "ping", frame: []byte(`{"type":"ping"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &mockRegistry{inRoom: true}
			handler := NewHandler(reg)
			conn := &mockConn{id: "client1"}

			handler.Handle(conn, tt.frame)

			assert.Empty(t, reg.getJoins())
			assert.Empty(t, reg.getUpdates())
			assert.Empty(t, conn.getSent())
		})
	}
}
