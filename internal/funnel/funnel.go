// Package funnel implements the vote-aggregating gateway: it accepts
// WebSocket client connections, maintains one upstream connection to the
// engine, runs the voting-round scheduler, and rebroadcasts engine state to
// every connected client.
//
// A single-threaded, edge-triggered readiness reactor is the natural shape
// for this problem; Go's idiomatic substitute is one coordinating
// goroutine fed by channels from per-connection goroutines: every client
// gets a reader and a writer goroutine, the upstream connection gets a
// reader goroutine, and a single select loop in Run serializes all state
// transitions (ClientTable mutation, scheduler arming, vote selection) the
// same way the reactor's single thread did. No locks are needed because
// only that loop ever touches ClientTable, latestState, or the scheduler.
package funnel

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/crowdchess/backend/internal/clog"
	"github.com/crowdchess/backend/internal/wire"
)

const clientSendBuffer = 16

// clientVote and clientGone both carry the *Client alongside its index so
// the reactor can tell a stale notification from a recycled slot's new
// occupant: ClientTable recycles indices on removal, so a goroutine that
// raced the removal of its own session must not be allowed to act on
// whatever client now holds that index.
type clientVote struct {
	index  int
	client *Client
	vote   wire.Vote
}

type clientGone struct {
	index  int
	client *Client
}

type upstreamFrame struct {
	raw []byte
	err error
}

// Funnel owns every piece of mutable state in the process: the client
// table, the scheduler, the upstream connection, and the last StateChange
// seen. The reactor owns the scheduler and table directly rather than
// through back-references.
type Funnel struct {
	log       *clog.Logger
	clients   *ClientTable
	scheduler *VoteScheduler
	upstream  Upstream

	latestState json.RawMessage

	acceptCh chan ClientConn
	voteCh   chan clientVote
	goneCh   chan clientGone
	upCh     chan upstreamFrame
}

// New builds a Funnel around an already-dialed Upstream.
func New(log *clog.Logger, upstream Upstream, scheduler *VoteScheduler) *Funnel {
	return &Funnel{
		log:       log,
		clients:   NewClientTable(),
		scheduler: scheduler,
		upstream:  upstream,
		acceptCh:  make(chan ClientConn),
		voteCh:    make(chan clientVote),
		goneCh:    make(chan clientGone),
		upCh:      make(chan upstreamFrame),
	}
}

// Accept registers a newly upgraded client connection with the reactor. The
// listener-side goroutine (see cmd/funnel) calls this once per accepted
// WebSocket upgrade; it does not block on reactor processing beyond the
// channel handoff.
func (f *Funnel) Accept(conn ClientConn) {
	f.acceptCh <- conn
}

// Run drives the single coordinating loop until upstream fails, which is
// process-fatal since the engine is indispensable.
func (f *Funnel) Run() error {
	go f.readUpstream()

	for {
		timer, stop := f.scheduleTimer()

		select {
		case conn := <-f.acceptCh:
			f.onAccept(conn)
		case cv := <-f.voteCh:
			f.onVote(cv)
		case g := <-f.goneCh:
			f.onClientGone(g.index, g.client)
		case frame := <-f.upCh:
			stop()
			if frame.err != nil {
				return frame.err
			}
			f.onUpstreamFrame(frame.raw)
			continue
		case now := <-timer:
			f.onTimer(now)
			continue
		}
		stop()
	}
}

// scheduleTimer arms a channel that fires at the scheduler's next deadline,
// or a nil channel (which blocks forever in select) if nothing is armed.
func (f *Funnel) scheduleTimer() (<-chan time.Time, func()) {
	deadline, ok := f.scheduler.NextDeadline()
	if !ok {
		return nil, func() {}
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}

func (f *Funnel) onAccept(conn ClientConn) {
	c := &Client{Conn: conn, send: make(chan []byte, clientSendBuffer)}
	idx := f.clients.Insert(c)
	go f.pumpClientWrites(idx, c)
	go f.readClientVotes(idx, c)

	if f.latestState != nil {
		f.enqueue(idx, c, f.latestState)
	}
}

// onVote applies a vote reported by idx's reader goroutine, but only if that
// goroutine is still speaking for the client currently occupying idx — a
// goroutine whose session was torn down after it read but before it could
// deliver the vote must not land on whoever has since recycled that slot.
func (f *Funnel) onVote(cv clientVote) {
	c := f.clients.Get(cv.index)
	if c == nil || c != cv.client {
		return
	}
	v := cv.vote
	c.PendingVote = &v
}

// onClientGone tears down a session: closing the connection unblocks that
// client's reader goroutine (stuck in ReadMessage), and closing send
// unblocks its writer goroutine. Both must happen before Remove recycles
// the index. c identifies which client this notification is about; if idx
// now holds a different client (the reader or writer goroutine raced an
// earlier teardown of the same session), this is a no-op rather than a
// chance to tear down someone else's session.
func (f *Funnel) onClientGone(idx int, c *Client) {
	cur := f.clients.Get(idx)
	if cur == nil || cur != c {
		return
	}
	c.Conn.Close()
	close(c.send)
	f.clients.Remove(idx)
}

func (f *Funnel) onUpstreamFrame(raw []byte) {
	var msg wire.DownstreamMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		f.log.Warnf("malformed upstream message, dropping: %v", err)
		return
	}

	now := time.Now()
	switch {
	case msg.StateChange != nil:
		f.latestState = append(json.RawMessage(nil), raw...)
		f.scheduler.OnUpstreamStateChange(now)
		f.broadcast(raw)
	case msg.VoteCall != nil:
		adjustedMS := f.scheduler.OnUpstreamVoteCall(now, msg.VoteCall.TimeoutMS)
		rewritten, err := json.Marshal(wire.VoteCallMessage(wire.VoteCall{TimeoutMS: adjustedMS}))
		if err != nil {
			f.log.Warnf("failed to re-encode vote call: %v", err)
			return
		}
		f.broadcast(rewritten)
	}
}

func (f *Funnel) onTimer(now time.Time) {
	if f.scheduler.VoteStartDue(now) {
		f.scheduler.FireVoteStart(now)
		call, err := json.Marshal(wire.VoteCallMessage(wire.VoteCall{TimeoutMS: uint32(f.scheduler.VoteTimeout.Milliseconds())}))
		if err != nil {
			f.log.Warnf("failed to encode vote call: %v", err)
		} else {
			f.broadcast(call)
		}
	}
	if f.scheduler.VoteSendDue(now) {
		f.scheduler.FireVoteSend()
		f.sendSelectedVote()
	}
}

// sendSelectedVote picks one pending vote at random, forwards it upstream
// with weight set to the sum of every pending vote's weight, and clears
// every client's pending vote regardless of outcome.
func (f *Funnel) sendSelectedVote() {
	var voted []int
	weightSum := uint32(0)
	f.clients.Iter(func(idx int, c *Client) {
		if c.PendingVote != nil {
			voted = append(voted, idx)
			weightSum += c.PendingVote.Weight
		}
	})

	var toSend wire.Vote
	if len(voted) == 0 {
		toSend = wire.Vote{Weight: 0}
	} else {
		winner := f.clients.Get(voted[rand.Intn(len(voted))])
		toSend = wire.Vote{Action: winner.PendingVote.Action, Weight: weightSum}
	}

	f.clients.Iter(func(_ int, c *Client) { c.PendingVote = nil })

	data, err := json.Marshal(toSend)
	if err != nil {
		f.log.Warnf("failed to encode selected vote: %v", err)
		return
	}
	if err := f.upstream.WriteFrame(data); err != nil {
		f.log.Warnf("upstream write failed: %v", err)
	}
}

func (f *Funnel) broadcast(raw []byte) {
	f.clients.Iter(func(idx int, c *Client) { f.enqueue(idx, c, raw) })
}

// enqueue hands raw to a client's writer goroutine. A full send buffer
// means that client cannot keep up; that is fatal to the
// client session alone, so it is dropped from the table rather than
// blocking the reactor loop.
func (f *Funnel) enqueue(idx int, c *Client, raw []byte) {
	select {
	case c.send <- raw:
	default:
		f.log.Warnf("client %d send buffer full, dropping session", idx)
		f.onClientGone(idx, c)
	}
}

// pumpClientWrites is the writer goroutine for one client: it drains send
// until the channel is closed by onClientGone, or a write fails, in which
// case it reports itself gone.
func (f *Funnel) pumpClientWrites(idx int, c *Client) {
	for raw := range c.send {
		if err := c.Conn.WriteMessage(1, raw); err != nil { // 1 == websocket.TextMessage
			f.log.Warnf("client %d write failed: %v", idx, err)
			f.goneCh <- clientGone{index: idx, client: c}
			return
		}
	}
}

// readClientVotes is a client's reader goroutine: every inbound frame is
// parsed as a Vote and handed to the reactor loop. A malformed frame is
// logged and the session kept alive; a read error removes it. c is the
// Client this goroutine was spawned for, carried through to voteCh/goneCh
// so the reactor can detect a notification that has been overtaken by the
// session's own teardown (e.g. ReadMessage unblocking because onClientGone
// already closed the connection from the other direction).
func (f *Funnel) readClientVotes(idx int, c *Client) {
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			f.goneCh <- clientGone{index: idx, client: c}
			return
		}

		var v wire.Vote
		if err := json.Unmarshal(data, &v); err != nil {
			f.log.Warnf("client %d sent a malformed vote, dropping frame: %v", idx, err)
			continue
		}
		f.voteCh <- clientVote{index: idx, client: c, vote: v}
	}
}

// readUpstream is the sole reader of the upstream connection; it feeds
// decoded frames to the reactor loop over upCh. A read error is reported
// once and the goroutine exits, since upstream failure is process-fatal.
func (f *Funnel) readUpstream() {
	for {
		raw, err := f.upstream.ReadFrame()
		if err != nil {
			f.upCh <- upstreamFrame{err: err}
			return
		}
		f.upCh <- upstreamFrame{raw: raw}
	}
}
