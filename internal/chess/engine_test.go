package chess

import "testing"

func TestApplyPawnDoublePush(t *testing.T) {
	e := NewEngine()

	result := e.Apply(Action{From: Coordinate{4, 6}, To: Coordinate{4, 4}})
	if !result.Accepted || result.Checkmate {
		t.Fatalf("expected e2-e4 to be accepted without checkmate, got %+v", result)
	}

	state := e.State()
	if p := state.Board.At(Coordinate{4, 4}); p == nil || p.Kind != Pawn || p.Colour != White {
		t.Errorf("expected a white pawn at (4,4), got %v", p)
	}
	if p := state.Board.At(Coordinate{4, 6}); p != nil {
		t.Errorf("expected (4,6) to be empty after the push, got %v", p)
	}
	if state.Turn != Black {
		t.Errorf("expected turn to flip to Black, got %v", state.Turn)
	}
}

func TestApplyRejectsIllegalPawnTriplePush(t *testing.T) {
	e := NewEngine()

	result := e.Apply(Action{From: Coordinate{4, 6}, To: Coordinate{4, 3}})
	if result.Accepted {
		t.Fatalf("expected a three-square pawn push to be rejected")
	}
	if e.State().Turn != White {
		t.Errorf("turn must not change on a rejected move")
	}
}

func TestApplyKnightDevelopment(t *testing.T) {
	e := NewEngine()

	result := e.Apply(Action{From: Coordinate{1, 7}, To: Coordinate{2, 5}})
	if !result.Accepted {
		t.Fatalf("expected b1-c3 to be accepted")
	}

	state := e.State()
	if p := state.Board.At(Coordinate{2, 5}); p == nil || p.Kind != Knight || p.Colour != White {
		t.Errorf("expected a white knight at (2,5), got %v", p)
	}
	if state.Turn != Black {
		t.Errorf("expected turn to flip to Black, got %v", state.Turn)
	}
}

func TestApplyRejectsRookBlockedByOwnPawn(t *testing.T) {
	e := NewEngine()

	result := e.Apply(Action{From: Coordinate{0, 7}, To: Coordinate{0, 5}})
	if result.Accepted {
		t.Fatalf("expected the rook move to be rejected")
	}
	if e.State().Turn != White {
		t.Errorf("turn must not change on a rejected move")
	}
}

func TestApplyTwoMoveSequence(t *testing.T) {
	e := NewEngine()

	if r := e.Apply(Action{From: Coordinate{4, 6}, To: Coordinate{4, 4}}); !r.Accepted {
		t.Fatalf("expected e2-e4 to be accepted")
	}
	result := e.Apply(Action{From: Coordinate{4, 1}, To: Coordinate{4, 3}})
	if !result.Accepted {
		t.Fatalf("expected e7-e5 to be accepted")
	}

	state := e.State()
	if p := state.Board.At(Coordinate{4, 3}); p == nil || p.Kind != Pawn || p.Colour != Black {
		t.Errorf("expected a black pawn at (4,3), got %v", p)
	}
	if state.Turn != White {
		t.Errorf("expected turn to flip back to White, got %v", state.Turn)
	}
}

// TestApplyFoolsMateDetectsCheckmateAndResets reproduces Fool's Mate:
// White has already played f2-f3 and g2-g4, Black has played e7-e5; Black
// plays Qd8-h4 for checkmate, and the engine must reset to the opening
// position.
func TestApplyFoolsMateDetectsCheckmateAndResets(t *testing.T) {
	e := NewEngine()
	board := NewBoard()
	board.set(Coordinate{5, 5}, board.At(Coordinate{5, 6})) // f2 pawn to f3
	board.set(Coordinate{5, 6}, nil)
	board.set(Coordinate{6, 4}, board.At(Coordinate{6, 6})) // g2 pawn to g4
	board.set(Coordinate{6, 6}, nil)
	board.set(Coordinate{4, 3}, board.At(Coordinate{4, 1})) // e7 pawn to e5
	board.set(Coordinate{4, 1}, nil)
	e.state = StateChange{Board: board, Turn: Black}

	result := e.Apply(Action{From: Coordinate{3, 0}, To: Coordinate{7, 4}})
	if !result.Accepted {
		t.Fatalf("expected Qd8-h4 to be accepted")
	}
	if !result.Checkmate {
		t.Fatalf("expected Qd8-h4 to deliver checkmate")
	}

	state := e.State()
	if state.Turn != White {
		t.Errorf("expected reset state to have White to move, got %v", state.Turn)
	}
	want := NewBoard()
	if !boardsEqual(state.Board, want) {
		t.Errorf("expected the board to reset to the opening position after checkmate")
	}
}

// boardsEqual compares piece values rather than pointer identity, since
// Board stores *Piece and two freshly-built boards never share pointers.
func boardsEqual(a, b Board) bool {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			pa, pb := a[y][x], b[y][x]
			if (pa == nil) != (pb == nil) {
				return false
			}
			if pa != nil && *pa != *pb {
				return false
			}
		}
	}
	return true
}

func TestApplyRejectsMoveIntoCheck(t *testing.T) {
	// A king pinned with no legal destination: White king on e1, White
	// bishop on e2 that is the only blocker against a black rook on e8.
	// Moving the bishop away exposes the king, so it must be rejected.
	var board Board
	board.set(Coordinate{4, 7}, &Piece{Kind: King, Colour: White})
	board.set(Coordinate{4, 6}, &Piece{Kind: Bishop, Colour: White})
	board.set(Coordinate{4, 0}, &Piece{Kind: Rook, Colour: Black})
	board.set(Coordinate{0, 0}, &Piece{Kind: King, Colour: Black})

	e := &Engine{state: StateChange{Board: board, Turn: White}}
	result := e.Apply(Action{From: Coordinate{4, 6}, To: Coordinate{3, 5}})

	if result.Accepted {
		t.Fatalf("expected the bishop move to be rejected for moving into check")
	}
	if e.State().Turn != White {
		t.Errorf("turn must not change on a rejected move")
	}
}

func TestPieceCountNeverIncreases(t *testing.T) {
	countPieces := func(b Board) int {
		n := 0
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				if b[y][x] != nil {
					n++
				}
			}
		}
		return n
	}

	e := NewEngine()
	before := countPieces(e.State().Board)

	result := e.Apply(Action{From: Coordinate{1, 7}, To: Coordinate{2, 5}})
	if !result.Accepted {
		t.Fatalf("expected the knight move to be accepted")
	}

	after := countPieces(e.State().Board)
	if after > before {
		t.Errorf("piece count increased from %d to %d", before, after)
	}
	if after != before {
		t.Errorf("a non-capturing move must not change the piece count: %d -> %d", before, after)
	}
}
