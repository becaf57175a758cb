package funnel

import "github.com/crowdchess/backend/internal/wire"

// ClientConn is the minimal surface the reactor needs from a client
// WebSocket connection, satisfied by *websocket.Conn.
type ClientConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Client is one connected WebSocket session as tracked by the ClientTable.
// PendingVote is set by the reactor loop when that client's reader
// goroutine hands it a parsed Vote, and cleared by vote selection at the
// end of a round, win or lose.
// send is the outbound queue its writer goroutine drains; closing it tears
// down that goroutine.
type Client struct {
	Conn        ClientConn
	PendingVote *wire.Vote
	send        chan []byte
}

// ClientTable is a slab-style container: insert returns a freshly minted or
// recycled index, indices stay stable for the life of the session, and
// removal recycles the slot for the next insert. Indices double as the
// correlation tokens the reactor uses to address a specific client.
type ClientTable struct {
	slots []*Client
	free  []int
}

// NewClientTable returns an empty table.
func NewClientTable() *ClientTable {
	return &ClientTable{}
}

// Insert adds a client and returns its stable index.
func (t *ClientTable) Insert(c *Client) int {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[idx] = c
		return idx
	}
	t.slots = append(t.slots, c)
	return len(t.slots) - 1
}

// Get returns the client at index, or nil if it is absent or was removed.
func (t *ClientTable) Get(index int) *Client {
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index]
}

// Remove evicts the client at index, recycling the slot. Removing an
// already-empty slot is a no-op.
func (t *ClientTable) Remove(index int) {
	if index < 0 || index >= len(t.slots) || t.slots[index] == nil {
		return
	}
	t.slots[index] = nil
	t.free = append(t.free, index)
}

// Iter calls fn for every live client, in index order.
func (t *ClientTable) Iter(fn func(index int, c *Client)) {
	for i, c := range t.slots {
		if c != nil {
			fn(i, c)
		}
	}
}

// Len returns the number of live clients.
func (t *ClientTable) Len() int {
	n := 0
	t.Iter(func(int, *Client) { n++ })
	return n
}
