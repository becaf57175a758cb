// Package wire implements the JSON message envelopes exchanged on both the
// funnel-to-client and funnel-to-engine connections: Vote, VoteCall, and the
// untagged DownstreamMessage union.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/crowdchess/backend/internal/chess"
)

// Vote is a client-proposed move plus a weight. The engine skips a vote
// whose weight is 0 and otherwise does not use it; the funnel overwrites
// Weight with the sum of the weights of every client that voted this round
// before forwarding it upstream.
type Vote struct {
	Action chess.Action `json:"action"`
	Weight uint32       `json:"weight"`
}

// VoteCall asks clients (or the funnel, on the upstream leg) to open a
// voting window of TimeoutMS milliseconds.
type VoteCall struct {
	TimeoutMS uint32 `json:"timeout"`
}

// DownstreamMessage is the untagged union the engine emits: either a
// chess.StateChange or a VoteCall. Exactly one of StateChange or VoteCall
// is set; consumers disambiguate by field presence on the wire ("board"+
// "turn" vs "timeout"), not by a type tag.
type DownstreamMessage struct {
	StateChange *chess.StateChange
	VoteCall    *VoteCall
}

// StateChangeMessage wraps a StateChange as a DownstreamMessage.
func StateChangeMessage(sc chess.StateChange) DownstreamMessage {
	return DownstreamMessage{StateChange: &sc}
}

// VoteCallMessage wraps a VoteCall as a DownstreamMessage.
func VoteCallMessage(vc VoteCall) DownstreamMessage {
	return DownstreamMessage{VoteCall: &vc}
}

// MarshalJSON emits whichever of the two variants is set.
func (m DownstreamMessage) MarshalJSON() ([]byte, error) {
	switch {
	case m.StateChange != nil:
		return json.Marshal(m.StateChange)
	case m.VoteCall != nil:
		return json.Marshal(m.VoteCall)
	default:
		return nil, fmt.Errorf("wire: empty DownstreamMessage has nothing to encode")
	}
}

// downstreamProbe is decoded first to see which fields are present on the
// wire, without committing to either variant's strict schema.
type downstreamProbe struct {
	Board   json.RawMessage `json:"board"`
	Turn    json.RawMessage `json:"turn"`
	Timeout json.RawMessage `json:"timeout"`
}

// UnmarshalJSON disambiguates by field presence: "board"+"turn" decodes as
// a StateChange, "timeout" decodes as a VoteCall. Neither present is a
// malformed message.
func (m *DownstreamMessage) UnmarshalJSON(data []byte) error {
	var probe downstreamProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("wire: decoding downstream message: %w", err)
	}

	switch {
	case probe.Board != nil && probe.Turn != nil:
		var sc chess.StateChange
		if err := json.Unmarshal(data, &sc); err != nil {
			return fmt.Errorf("wire: decoding state change: %w", err)
		}
		m.StateChange, m.VoteCall = &sc, nil
	case probe.Timeout != nil:
		var vc VoteCall
		if err := json.Unmarshal(data, &vc); err != nil {
			return fmt.Errorf("wire: decoding vote call: %w", err)
		}
		m.VoteCall, m.StateChange = &vc, nil
	default:
		return fmt.Errorf("wire: cannot disambiguate downstream message: %s", data)
	}
	return nil
}
