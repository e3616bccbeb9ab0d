package shogi

import "strings"

type Format int

const (
	// FormatDisplay is the boxed board shown to the human.
	FormatDisplay Format = iota
	// FormatPrompt is the compact letter grid sent to the model. Hands are
	// labelled 先手/後手 so the text reads the same from either side.
	FormatPrompt
)

const none = "なし"

// Render draws st. Gote is always at the top; its pieces carry a v prefix in
// the display form and lowercase letters in the prompt form.
func Render(st State, f Format) string {
	if f == FormatPrompt {
		return renderPrompt(st)
	}
	return renderDisplay(st)
}

func renderDisplay(st State) string {
	var b strings.Builder
	b.WriteString("【AI の持ち駒】" + handText(st.Hands[Gote], " ") + "\n\n")
	b.WriteString("  " + strings.Join(fullWidthHeader(), " ") + "\n")
	b.WriteString("┏" + strings.Repeat("━", 27) + "┓\n")
	writeGrid(&b, st.Board, "┃")
	b.WriteString("┗" + strings.Repeat("━", 27) + "┛\n")
	b.WriteString("\n【あなたの持ち駒】" + handText(st.Hands[Sente], " ") + "\n")
	return b.String()
}

func renderPrompt(st State) string {
	var b strings.Builder
	b.WriteString("現在の盤面:\n")
	b.WriteString(Gote.Name() + "の持駒: " + handText(st.Hands[Gote], ",") + "\n")
	b.WriteString("  9 8 7 6 5 4 3 2 1\n")
	for row := 0; row < 9; row++ {
		cells := make([]string, 9)
		for col := 0; col < 9; col++ {
			cells[col] = st.Board[row][col].Letter()
		}
		b.WriteString(rankKanji[row] + " " + strings.Join(cells, " ") + "\n")
	}
	b.WriteString(Sente.Name() + "の持駒: " + handText(st.Hands[Sente], ",") + "\n")
	b.WriteString("手番: " + st.Turn.Name() + "\n")
	return b.String()
}

// writeGrid draws the nine board rows between edge characters, each row
// followed by its kanji rank.
func writeGrid(b *strings.Builder, board Board, edge string) {
	for row := 0; row < 9; row++ {
		b.WriteString(edge)
		for col := 0; col < 9; col++ {
			p := board[row][col]
			switch {
			case p.Empty():
				b.WriteString(" ・")
			case p.Side == Gote:
				b.WriteString("v" + p.Glyph())
			default:
				b.WriteString(" " + p.Glyph())
			}
		}
		b.WriteString(edge + rankKanji[row] + "\n")
	}
}

func handText(h Hand, sep string) string {
	if len(h) == 0 {
		return none
	}
	return strings.Join(h.Names(), sep)
}

func fullWidthHeader() []string {
	out := make([]string, 9)
	for i := range out {
		out[i] = fullWidthDigits[8-i]
	}
	return out
}
