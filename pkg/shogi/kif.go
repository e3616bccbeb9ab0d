package shogi

import (
	"fmt"
	"strconv"
	"strings"
)

const kifClock = "( 0:00/00:00:00)"

// FormatKIF writes the game as KIF text. Every board move carries its source
// square, so the file replays without ambiguity. A game that ended by king
// capture is closed with 投了 for the side that lost its king.
func FormatKIF(st State) string {
	var b strings.Builder
	if st.Start == "" {
		b.WriteString("手合割：平手\n")
	} else if start, err := ParseSFEN(st.Start); err == nil {
		writeKIFPosition(&b, start)
	}
	b.WriteString("先手：" + Sente.Label() + "\n")
	b.WriteString("後手：" + Gote.Label() + "\n")
	b.WriteString("手数----指手---------消費時間--\n")

	var prev *Square
	for i, mv := range st.Kifu {
		b.WriteString(fmt.Sprintf("%4d %s   %s\n", i+1, kifMove(mv, prev), kifClock))
		to := mv.To
		prev = &to
	}
	if st.Over {
		b.WriteString(fmt.Sprintf("%4d 投了\n", len(st.Kifu)+1))
	}
	return b.String()
}

func kifMove(mv Played, prev *Square) string {
	var b strings.Builder
	if prev != nil && *prev == mv.To {
		b.WriteString("同　")
	} else {
		b.WriteString(fullWidthDigits[mv.To.File()-1] + rankKanji[mv.To.Row])
	}
	if mv.Drop {
		b.WriteString(mv.Piece.Name() + dropMarker)
		return b.String()
	}
	name := mv.Piece.Name()
	if mv.Promote {
		name = mv.Piece.Demote().Name() + promote
	}
	b.WriteString(name)
	if mv.From != nil {
		b.WriteString(fmt.Sprintf("(%d%d)", mv.From.File(), mv.From.Rank()))
	}
	return b.String()
}

func writeKIFPosition(b *strings.Builder, st State) {
	b.WriteString("後手の持駒：" + kifHand(st.Hands[Gote]) + "\n")
	b.WriteString("  " + strings.Join(fullWidthHeader(), " ") + "\n")
	b.WriteString("+---------------------------+\n")
	writeGrid(b, st.Board, "|")
	b.WriteString("+---------------------------+\n")
	b.WriteString("先手の持駒：" + kifHand(st.Hands[Sente]) + "\n")
	if st.Turn == Gote {
		b.WriteString("手番：後手\n")
	}
}

func kifHand(h Hand) string {
	if len(h) == 0 {
		return none
	}
	var parts []string
	for _, kind := range handOrder {
		count := h.Count(kind)
		if count == 0 {
			continue
		}
		parts = append(parts, kind.Name()+kanjiCount(count))
	}
	return strings.Join(parts, "　")
}

func kanjiCount(n int) string {
	if n <= 1 {
		return ""
	}
	if n >= 100 {
		return strconv.Itoa(n)
	}
	var text string
	if tens := n / 10; tens > 0 {
		if tens > 1 {
			text = rankKanji[tens-1]
		}
		text += "十"
	}
	if ones := n % 10; ones > 0 {
		text += rankKanji[ones-1]
	}
	return text
}
