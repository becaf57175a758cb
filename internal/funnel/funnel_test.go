package funnel

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/crowdchess/backend/internal/chess"
	"github.com/crowdchess/backend/internal/clog"
	"github.com/crowdchess/backend/internal/wire"
)

// fakeConn is a minimal ClientConn that records writes and lets tests feed
// canned reads.
type fakeConn struct {
	written [][]byte
	closed  bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.written = append(c.written, append([]byte{}, data...))
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {}
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// fakeUpstream records every frame written to it and never yields a read,
// since these tests drive the reactor's internal handlers directly rather
// than through Run's upstream goroutine.
type fakeUpstream struct {
	written [][]byte
}

func (u *fakeUpstream) ReadFrame() ([]byte, error) { select {} }

func (u *fakeUpstream) WriteFrame(data []byte) error {
	u.written = append(u.written, append([]byte{}, data...))
	return nil
}

func (u *fakeUpstream) Close() error { return nil }

func newTestFunnel() (*Funnel, *fakeUpstream) {
	up := &fakeUpstream{}
	sched := NewVoteScheduler(10*time.Second, 5*time.Second, time.Second, false)
	return New(clog.New("test"), up, sched), up
}

func TestOnAcceptSendsLatestStateImmediately(t *testing.T) {
	f, _ := newTestFunnel()
	raw, err := json.Marshal(wire.StateChangeMessage(chess.StateChange{Board: chess.NewBoard(), Turn: chess.White}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	f.latestState = raw

	conn := &fakeConn{}
	f.onAccept(conn)

	idx := 0
	c := f.clients.Get(idx)
	if c == nil {
		t.Fatalf("expected a client to be inserted")
	}
	select {
	case got := <-c.send:
		if string(got) != string(raw) {
			t.Errorf("expected the latest state to be queued, got %s", got)
		}
	default:
		t.Fatalf("expected the latest state to be enqueued for the new client")
	}
}

func TestSendSelectedVoteWithNoVotesSendsZeroWeight(t *testing.T) {
	f, up := newTestFunnel()
	f.onAccept(&fakeConn{})

	f.sendSelectedVote()

	if len(up.written) != 1 {
		t.Fatalf("expected exactly one upstream write, got %d", len(up.written))
	}
	var v wire.Vote
	if err := json.Unmarshal(up.written[0], &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Weight != 0 {
		t.Errorf("expected weight 0 when no client voted, got %d", v.Weight)
	}
}

func TestSendSelectedVoteAggregatesWeightAndClearsPending(t *testing.T) {
	f, up := newTestFunnel()
	f.onAccept(&fakeConn{})
	f.onAccept(&fakeConn{})

	action := chess.Action{From: chess.Coordinate{4, 6}, To: chess.Coordinate{4, 4}}
	f.onVote(clientVote{index: 0, client: f.clients.Get(0), vote: wire.Vote{Action: action, Weight: 2}})
	f.onVote(clientVote{index: 1, client: f.clients.Get(1), vote: wire.Vote{Action: action, Weight: 3}})

	f.sendSelectedVote()

	var v wire.Vote
	if err := json.Unmarshal(up.written[0], &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Weight != 5 {
		t.Errorf("expected aggregated weight 5, got %d", v.Weight)
	}
	if v.Action != action {
		t.Errorf("expected the forwarded action to match a voted action, got %+v", v.Action)
	}

	f.clients.Iter(func(_ int, c *Client) {
		if c.PendingVote != nil {
			t.Errorf("expected every client's pending vote to be cleared after selection")
		}
	})
}

func TestOnUpstreamFrameCachesStateAndArmsVoteStart(t *testing.T) {
	f, _ := newTestFunnel()
	f.onAccept(&fakeConn{})

	raw, err := json.Marshal(wire.StateChangeMessage(chess.StateChange{Board: chess.NewBoard(), Turn: chess.Black}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	f.onUpstreamFrame(raw)

	if string(f.latestState) != string(raw) {
		t.Errorf("expected latestState to be cached")
	}
	if _, ok := f.scheduler.NextDeadline(); !ok {
		t.Errorf("expected a state change to arm next_vote_start")
	}

	c := f.clients.Get(0)
	select {
	case got := <-c.send:
		if string(got) != string(raw) {
			t.Errorf("expected the state change to be rebroadcast verbatim")
		}
	default:
		t.Fatalf("expected the state change to be broadcast to the connected client")
	}
}

func TestOnUpstreamFrameRewritesVoteCallTimeout(t *testing.T) {
	f, _ := newTestFunnel()
	f.scheduler.TimeoutChange = 500 * time.Millisecond
	f.onAccept(&fakeConn{})

	raw, err := json.Marshal(wire.VoteCallMessage(wire.VoteCall{TimeoutMS: 2000}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	f.onUpstreamFrame(raw)

	c := f.clients.Get(0)
	select {
	case got := <-c.send:
		var vc wire.VoteCall
		if err := json.Unmarshal(got, &vc); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if vc.TimeoutMS != 1500 {
			t.Errorf("expected the rebroadcast timeout to be reduced by timeout_change, got %d", vc.TimeoutMS)
		}
	default:
		t.Fatalf("expected a rewritten vote call to be broadcast")
	}
}

func TestOnUpstreamFrameDropsMalformedMessage(t *testing.T) {
	f, _ := newTestFunnel()
	f.onUpstreamFrame([]byte(`{"not":"a recognized shape"}`))
	if f.latestState != nil {
		t.Errorf("expected a malformed message not to update latestState")
	}
}

func TestOnClientGoneRemovesFromTable(t *testing.T) {
	f, _ := newTestFunnel()
	f.onAccept(&fakeConn{})

	c := f.clients.Get(0)
	f.onClientGone(0, c)

	if f.clients.Get(0) != nil {
		t.Errorf("expected the client to be removed from the table")
	}
	conn := c.Conn.(*fakeConn)
	if !conn.closed {
		t.Errorf("expected the client connection to be closed on removal")
	}
}

func TestOnClientGoneIgnoresStaleNotificationForRecycledSlot(t *testing.T) {
	f, _ := newTestFunnel()
	f.onAccept(&fakeConn{})
	stale := f.clients.Get(0)

	f.onClientGone(0, stale)
	f.onAccept(&fakeConn{})
	newClient := f.clients.Get(0)

	f.onClientGone(0, stale)

	if f.clients.Get(0) != newClient {
		t.Errorf("a stale gone-notification for a recycled slot must not evict its new occupant")
	}
}
