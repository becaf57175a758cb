package chess

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes a Coordinate as the two-element array [x, y], matching
// a wire format compatible with a tuple-based origin protocol
// (Rust tuples serialize the same way).
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// UnmarshalJSON decodes a Coordinate from a [x, y] array.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("chess: decoding coordinate: %w", err)
	}
	c.X, c.Y = pair[0], pair[1]
	return nil
}

// MarshalJSON encodes a PieceKind as its name, e.g. "Knight".
func (k PieceKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a PieceKind from its name.
func (k *PieceKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("chess: decoding piece kind: %w", err)
	}
	switch s {
	case "King":
		*k = King
	case "Queen":
		*k = Queen
	case "Bishop":
		*k = Bishop
	case "Knight":
		*k = Knight
	case "Rook":
		*k = Rook
	case "Pawn":
		*k = Pawn
	default:
		return fmt.Errorf("chess: unknown piece kind %q", s)
	}
	return nil
}

// MarshalJSON encodes a PieceColour as "White" or "Black".
func (c PieceColour) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a PieceColour from "White" or "Black".
func (c *PieceColour) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("chess: decoding piece colour: %w", err)
	}
	switch s {
	case "White":
		*c = White
	case "Black":
		*c = Black
	default:
		return fmt.Errorf("chess: unknown piece colour %q", s)
	}
	return nil
}

// pieceJSON is the wire shape of a Piece: {"kind":"Knight","colour":"White"}.
type pieceJSON struct {
	Kind   PieceKind   `json:"kind"`
	Colour PieceColour `json:"colour"`
}

// MarshalJSON encodes a Piece as {"kind":...,"colour":...}.
func (p Piece) MarshalJSON() ([]byte, error) {
	return json.Marshal(pieceJSON{Kind: p.Kind, Colour: p.Colour})
}

// UnmarshalJSON decodes a Piece from {"kind":...,"colour":...}.
func (p *Piece) UnmarshalJSON(data []byte) error {
	var pj pieceJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return fmt.Errorf("chess: decoding piece: %w", err)
	}
	p.Kind, p.Colour = pj.Kind, pj.Colour
	return nil
}

// actionJSON gives Action the field names the wire protocol expects;
// Board's default array encoding already matches the spec once Piece has
// its own MarshalJSON, so only Action and StateChange need tags.
type actionJSON struct {
	From Coordinate `json:"from"`
	To   Coordinate `json:"to"`
}

// MarshalJSON encodes an Action as {"from":[x,y],"to":[x,y]}.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(actionJSON{From: a.From, To: a.To})
}

// UnmarshalJSON decodes an Action from {"from":[x,y],"to":[x,y]}.
func (a *Action) UnmarshalJSON(data []byte) error {
	var aj actionJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return fmt.Errorf("chess: decoding action: %w", err)
	}
	a.From, a.To = aj.From, aj.To
	return nil
}

type stateChangeJSON struct {
	Board Board       `json:"board"`
	Turn  PieceColour `json:"turn"`
}

// MarshalJSON encodes a StateChange as {"board":[[...]],"turn":"White"}.
func (s StateChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateChangeJSON{Board: s.Board, Turn: s.Turn})
}

// UnmarshalJSON decodes a StateChange from {"board":[[...]],"turn":"White"}.
func (s *StateChange) UnmarshalJSON(data []byte) error {
	var sj stateChangeJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return fmt.Errorf("chess: decoding state change: %w", err)
	}
	s.Board, s.Turn = sj.Board, sj.Turn
	return nil
}
