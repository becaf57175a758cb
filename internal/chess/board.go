// Package chess implements the board representation, move legality rules,
// and the checkmate-detecting state machine that sits behind the engine's
// line-delimited JSON protocol.
package chess

import "fmt"

// Coordinate identifies a square on the board. X and Y each range over
// [0, 8); Y=0 is Black's back rank, Y=7 is White's.
type Coordinate struct {
	X, Y int
}

// InBounds reports whether c names a real square on an 8x8 board.
func (c Coordinate) InBounds() bool {
	return c.X >= 0 && c.X < 8 && c.Y >= 0 && c.Y < 8
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// PieceKind is the figure of a piece, independent of colour.
type PieceKind int

const (
	King PieceKind = iota
	Queen
	Bishop
	Knight
	Rook
	Pawn
)

func (k PieceKind) String() string {
	switch k {
	case King:
		return "King"
	case Queen:
		return "Queen"
	case Bishop:
		return "Bishop"
	case Knight:
		return "Knight"
	case Rook:
		return "Rook"
	case Pawn:
		return "Pawn"
	default:
		return "Unknown"
	}
}

// PieceColour is the side a piece belongs to.
type PieceColour int

const (
	White PieceColour = iota
	Black
)

func (c PieceColour) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// Opposite returns the other colour.
func (c PieceColour) Opposite() PieceColour {
	if c == White {
		return Black
	}
	return White
}

// Piece is a figure owned by one side.
type Piece struct {
	Kind   PieceKind
	Colour PieceColour
}

// Board is a fixed 8x8 grid, indexed Board[y][x]; a nil entry is an empty
// square. The zero value is an empty board, not the starting position —
// use NewBoard for that.
type Board [8][8]*Piece

// At returns the piece occupying c, or nil if c is empty or out of bounds.
func (b *Board) At(c Coordinate) *Piece {
	if !c.InBounds() {
		return nil
	}
	return b[c.Y][c.X]
}

// set places p at c. Callers must ensure c is in bounds.
func (b *Board) set(c Coordinate, p *Piece) {
	b[c.Y][c.X] = p
}

// NewBoard returns the standard chess opening position: Black on ranks
// y=0,1 and White on ranks y=6,7.
func NewBoard() Board {
	var b Board

	backRank := [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for x, kind := range backRank {
		b[0][x] = &Piece{Kind: kind, Colour: Black}
		b[7][x] = &Piece{Kind: kind, Colour: White}
	}
	for x := 0; x < 8; x++ {
		b[1][x] = &Piece{Kind: Pawn, Colour: Black}
		b[6][x] = &Piece{Kind: Pawn, Colour: White}
	}

	return b
}

// Clone returns a deep copy, safe to mutate without affecting b.
func (b *Board) Clone() Board {
	var out Board
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if p := b[y][x]; p != nil {
				cp := *p
				out[y][x] = &cp
			}
		}
	}
	return out
}

// FindKing locates the (first, and under the single-king invariant, only)
// king belonging to colour. ok is false if no such king exists.
func (b *Board) FindKing(colour PieceColour) (pos Coordinate, ok bool) {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := b[y][x]
			if p != nil && p.Kind == King && p.Colour == colour {
				return Coordinate{X: x, Y: y}, true
			}
		}
	}
	return Coordinate{}, false
}

// Action is a proposed move from one square to another.
type Action struct {
	From Coordinate
	To   Coordinate
}

// StateChange is the authoritative game state: the board plus whose turn
// it is to move next.
type StateChange struct {
	Board Board
	Turn  PieceColour
}
