package chess

// Engine owns the single authoritative StateChange and is the only thing
// allowed to mutate it. It has no I/O of its own; internal/engineserver
// drives it from the line-delimited JSON protocol described in the spec.
type Engine struct {
	state StateChange
}

// NewEngine returns an Engine positioned at the standard opening, White to
// move.
func NewEngine() *Engine {
	return &Engine{state: StateChange{Board: NewBoard(), Turn: White}}
}

// State returns the current StateChange.
func (e *Engine) State() StateChange {
	return e.state
}

// ApplyResult reports what happened when a vote was applied.
type ApplyResult struct {
	// Accepted is false if the move was illegal; board and turn are then
	// unchanged.
	Accepted bool
	// Checkmate is true if the accepted move left the side to move with
	// no legal escape; State() has already been reset to the opening
	// position by the time this is returned.
	Checkmate bool
}

// Apply validates action against the current state and, if legal,
// performs it: it mutates the board, flips the turn, and checks the new
// position for checkmate. On checkmate it resets to the initial layout
// with White to move.
func (e *Engine) Apply(action Action) ApplyResult {
	if !e.tryMove(action) {
		return ApplyResult{}
	}

	if e.isCheckmate() {
		e.state = StateChange{Board: NewBoard(), Turn: White}
		return ApplyResult{Accepted: true, Checkmate: true}
	}

	return ApplyResult{Accepted: true}
}

// tryMove is the legality check, check test, and mutation shared by Apply
// and the checkmate search below. It deliberately does not itself test for
// checkmate: isCheckmate calls tryMove on scratch copies to look for an
// escaping move, and a recursive checkmate check there would never
// terminate.
//
// The king square tested for attacks is located on the board before the
// move is applied, not after. This reproduces a known weakness of the
// engine this was translated from: it is only sound while the king isn't
// the piece moving and no blocking piece is displaced along the attack
// line. Kept faithfully rather than silently corrected.
func (e *Engine) tryMove(action Action) bool {
	turn := e.state.Turn
	if !IsLegalIgnoringCheck(&e.state.Board, action.From, action.To, turn) {
		return false
	}

	kingPos, ok := e.state.Board.FindKing(turn)
	if !ok {
		return false
	}

	opponent := turn.Opposite()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			attacker := Coordinate{X: x, Y: y}
			if IsLegalIgnoringCheck(&e.state.Board, attacker, kingPos, opponent) {
				return false
			}
		}
	}

	e.state.Board.set(action.To, e.state.Board.At(action.From))
	e.state.Board.set(action.From, nil)
	e.state.Turn = opponent
	return true
}

// isCheckmate enumerates every (from, to) pair in [0,8)^4 and asks whether
// any of them, applied via tryMove against a scratch copy of the current
// position, would succeed. If none do, the side now to move has no legal
// escape.
func (e *Engine) isCheckmate() bool {
	turn := e.state.Turn
	for fy := 0; fy < 8; fy++ {
		for fx := 0; fx < 8; fx++ {
			for ty := 0; ty < 8; ty++ {
				for tx := 0; tx < 8; tx++ {
					scratch := &Engine{state: StateChange{
						Board: e.state.Board.Clone(),
						Turn:  turn,
					}}
					action := Action{From: Coordinate{X: fx, Y: fy}, To: Coordinate{X: tx, Y: ty}}
					if scratch.tryMove(action) {
						return false
					}
				}
			}
		}
	}
	return true
}
