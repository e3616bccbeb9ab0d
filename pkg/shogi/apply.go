package shogi

// Resolution selects how a board move without an explicit source square
// finds the piece that moves.
type Resolution int

const (
	// FirstMatch takes the first own piece of the named kind in row-major
	// scan order, whether or not it could reach the destination.
	FirstMatch Resolution = iota
	// Reachable takes the first such piece that can reach the destination
	// under normal movement rules.
	Reachable
)

func (r Resolution) String() string {
	if r == Reachable {
		return "reachable"
	}
	return "first"
}

// ParseResolution accepts "first" and "reachable"; anything else is FirstMatch.
func ParseResolution(s string) Resolution {
	if s == "reachable" {
		return Reachable
	}
	return FirstMatch
}

// Rules controls the few checks the applier makes. The zero value is the
// default rule set.
type Rules struct {
	Resolution Resolution
	// AllowOccupiedDrop lets a drop overwrite whatever stands on the
	// destination. The overwritten piece is lost.
	AllowOccupiedDrop bool
}

// DefaultRules is used by the package-level helpers.
var DefaultRules = Rules{}

// ParseAndApply parses notation and applies it for side under DefaultRules.
func ParseAndApply(st State, notation string, side Side) (State, error) {
	return DefaultRules.ParseAndApply(st, notation, side)
}

// ParseAndApply returns the next state. On error it returns st itself,
// untouched, together with a *MoveError.
func (r Rules) ParseAndApply(st State, notation string, side Side) (State, error) {
	mv, err := ParseMove(notation)
	if err != nil {
		return st, err
	}
	return r.Apply(st, mv, side)
}

// Apply executes a parsed move for side. Side-to-move becomes side's
// opponent. Legality under shogi rules is not checked.
func (r Rules) Apply(st State, mv Move, side Side) (State, error) {
	to := mv.To
	if mv.Same {
		last, ok := st.LastTo()
		if !ok {
			return st, &MoveError{Code: CodeNoPrevious, Notation: mv.Notation}
		}
		to = last
	}

	next := st.Clone()
	played := Played{Side: side, To: to, Drop: mv.Drop, Notation: mv.Notation}

	if mv.Drop {
		if mv.Promoted {
			return st, &MoveError{Code: CodeHandEmpty, Notation: mv.Notation, Token: mv.Token}
		}
		hand, ok := next.Hands[side].without(mv.Kind)
		if !ok {
			return st, &MoveError{Code: CodeHandEmpty, Notation: mv.Notation, Token: mv.Kind.Name()}
		}
		if !r.AllowOccupiedDrop && !next.Board.At(to).Empty() {
			return st, &MoveError{Code: CodeDropOccupied, Notation: mv.Notation, Token: to.String()}
		}
		next.Hands[side] = hand
		placed := Piece{Kind: mv.Kind, Side: side}
		next.Board.Set(to, placed)
		played.Piece = placed
	} else {
		from, ok := r.resolve(&next.Board, mv, to, side)
		if !ok {
			return st, &MoveError{Code: CodePieceNotFound, Notation: mv.Notation, Token: mv.Token}
		}
		moved := next.Board.At(from)
		if from != to {
			captured := next.Board.At(to)
			if !captured.Empty() {
				played.Capture = captured.Kind
				// A taken king ends the game; it never becomes droppable.
				if captured.Kind != King {
					next.Hands[side] = append(next.Hands[side], captured.Demote().Kind)
				}
			}
		}
		if mv.Promote && !moved.Promoted && moved.Kind.Promotable() {
			moved.Promoted = true
			played.Promote = true
		}
		next.Board.Set(from, Piece{})
		next.Board.Set(to, moved)
		played.From = &from
		played.Piece = moved
	}

	next.Turn = side.Opponent()
	next.Log = append(next.Log, side.Label()+": "+mv.Notation)
	next.Kifu = append(next.Kifu, played)
	if !next.Over {
		if winner, over := CheckTerminal(&next.Board); over {
			next.Over = true
			next.Winner = winner
		}
	}
	return next, nil
}

func (r Rules) resolve(b *Board, mv Move, to Square, side Side) (Square, bool) {
	if mv.From != nil {
		if matches(b.At(*mv.From), mv, side) {
			return *mv.From, true
		}
		return Square{}, false
	}
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			sq := Square{Col: col, Row: row}
			if !matches(b.At(sq), mv, side) {
				continue
			}
			if r.Resolution == Reachable && !Reaches(b, sq, to) {
				continue
			}
			return sq, true
		}
	}
	return Square{}, false
}

// matches compares a board piece with the notation's piece token. A promoted
// token only matches promoted pieces; a base token matches either form.
func matches(p Piece, mv Move, side Side) bool {
	if p.Empty() || p.Side != side || p.Kind != mv.Kind {
		return false
	}
	return !mv.Promoted || p.Promoted
}
