package chess

// abs is the small integer absolute value used throughout the motion
// checks below; avoids pulling in math for a one-liner.
func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// IsLegalIgnoringCheck reports whether moving the piece at from to to is a
// legal motion for turn's side, without regard to whether it would leave
// that side's own king in check. It is pure and total: every input yields
// a deterministic accept/reject, never an error.
func IsLegalIgnoringCheck(board *Board, from, to Coordinate, turn PieceColour) bool {
	if !from.InBounds() || !to.InBounds() {
		return false
	}
	if from == to {
		return false
	}

	mover := board.At(from)
	if mover == nil || mover.Colour != turn {
		return false
	}

	target := board.At(to)
	if target != nil && target.Colour == turn {
		return false
	}

	dx := to.X - from.X
	dy := to.Y - from.Y

	switch mover.Kind {
	case King:
		return abs(dx) <= 1 && abs(dy) <= 1
	case Knight:
		return (abs(dx) == 1 && abs(dy) == 2) || (abs(dx) == 2 && abs(dy) == 1)
	case Rook:
		return (dx == 0) != (dy == 0) && pathClear(board, from, to)
	case Bishop:
		return abs(dx) == abs(dy) && dx != 0 && pathClear(board, from, to)
	case Queen:
		rookMotion := (dx == 0) != (dy == 0)
		bishopMotion := dx != 0 && abs(dx) == abs(dy)
		return (rookMotion || bishopMotion) && pathClear(board, from, to)
	case Pawn:
		return isLegalPawnMove(board, from, to, turn)
	default:
		return false
	}
}

// isLegalPawnMove implements pawn motion: forward one, forward two
// from the starting rank, and diagonal capture. s is +1 for Black (moving
// toward larger y) and -1 for White (moving toward smaller y).
func isLegalPawnMove(board *Board, from, to Coordinate, turn PieceColour) bool {
	dx := to.X - from.X
	dy := to.Y - from.Y

	s := -1
	startRank := 6
	if turn == Black {
		s = 1
		startRank = 1
	}

	switch {
	case dx == 0 && dy == s:
		return board.At(to) == nil
	case dx == 0 && dy == 2*s:
		if from.Y != startRank {
			return false
		}
		mid := Coordinate{X: from.X, Y: from.Y + s}
		return board.At(mid) == nil && board.At(to) == nil
	case abs(dx) == 1 && dy == s:
		target := board.At(to)
		return target != nil && target.Colour != turn
	default:
		return false
	}
}

// pathClear reports that every square strictly between from and to, along
// a straight or diagonal line, is empty. Callers establish that from and to
// are aligned before calling this.
func pathClear(board *Board, from, to Coordinate) bool {
	dx := sign(to.X - from.X)
	dy := sign(to.Y - from.Y)

	x, y := from.X+dx, from.Y+dy
	for x != to.X || y != to.Y {
		if board.At(Coordinate{X: x, Y: y}) != nil {
			return false
		}
		x += dx
		y += dy
	}
	return true
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
