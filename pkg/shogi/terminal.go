package shogi

// CheckTerminal scans the board once for both kings. When exactly one is
// missing the other side wins. A board with neither king reports no winner.
func CheckTerminal(b *Board) (Side, bool) {
	senteKing, goteKing := false, false
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			p := b[row][col]
			if p.Kind != King {
				continue
			}
			if p.Side == Sente {
				senteKing = true
			} else {
				goteKing = true
			}
		}
	}
	switch {
	case senteKing && goteKing:
		return Sente, false
	case !senteKing && !goteKing:
		return Sente, false
	case !senteKing:
		return Gote, true
	default:
		return Sente, true
	}
}

// IsTerminal reads the result recorded in st by the last apply.
func IsTerminal(st State) (Side, bool) {
	return st.Winner, st.Over
}
