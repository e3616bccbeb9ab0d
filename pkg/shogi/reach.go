package shogi

type step struct {
	dc, dr int
}

// Steps are written for Sente (forward = row-1) and mirrored for Gote.
var (
	goldSteps   = []step{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}}
	silverSteps = []step{{-1, -1}, {0, -1}, {1, -1}, {-1, 1}, {1, 1}}
	kingSteps   = []step{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
	knightSteps = []step{{-1, -2}, {1, -2}}
	pawnSteps   = []step{{0, -1}}
	orthogonal  = []step{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	diagonal    = []step{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	lanceRays   = []step{{0, -1}}
)

// movement returns the single steps and the sliding rays of a piece.
func movement(p Piece) (steps, rays []step) {
	if p.Promoted {
		switch p.Kind {
		case Rook:
			return diagonal, orthogonal
		case Bishop:
			return orthogonal, diagonal
		default:
			return goldSteps, nil
		}
	}
	switch p.Kind {
	case King:
		return kingSteps, nil
	case Rook:
		return nil, orthogonal
	case Bishop:
		return nil, diagonal
	case Gold:
		return goldSteps, nil
	case Silver:
		return silverSteps, nil
	case Knight:
		return knightSteps, nil
	case Lance:
		return nil, lanceRays
	case Pawn:
		return pawnSteps, nil
	default:
		return nil, nil
	}
}

func orient(s step, side Side) step {
	if side == Gote {
		return step{dc: -s.dc, dr: -s.dr}
	}
	return s
}

// Reaches reports whether the piece on from could move to to under normal
// movement rules, ignoring checks and what occupies to.
func Reaches(b *Board, from, to Square) bool {
	p := b.At(from)
	if p.Empty() || from == to || !to.Valid() {
		return false
	}
	steps, rays := movement(p)
	for _, s := range steps {
		s = orient(s, p.Side)
		if (Square{Col: from.Col + s.dc, Row: from.Row + s.dr}) == to {
			return true
		}
	}
	for _, s := range rays {
		s = orient(s, p.Side)
		sq := Square{Col: from.Col + s.dc, Row: from.Row + s.dr}
		for sq.Valid() {
			if sq == to {
				return true
			}
			if !b.At(sq).Empty() {
				break
			}
			sq = Square{Col: sq.Col + s.dc, Row: sq.Row + s.dr}
		}
	}
	return false
}

// CanPromote reports whether moving p between the two squares may promote:
// the piece is promotable and either square lies in the opponent's camp.
func CanPromote(p Piece, from, to Square) bool {
	if p.Empty() || p.Promoted || !p.Kind.Promotable() {
		return false
	}
	return inCamp(p.Side, from) || inCamp(p.Side, to)
}

func inCamp(side Side, s Square) bool {
	if side == Sente {
		return s.Row <= 2
	}
	return s.Row >= 6
}
