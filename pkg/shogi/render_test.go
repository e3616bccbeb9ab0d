package shogi_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"shogichat/pkg/shogi"
)

var glyphKinds = map[string]shogi.Kind{
	"王": shogi.King, "玉": shogi.King, "飛": shogi.Rook, "角": shogi.Bishop,
	"金": shogi.Gold, "銀": shogi.Silver, "桂": shogi.Knight, "香": shogi.Lance, "歩": shogi.Pawn,
}

// boardFromDisplay reads the boxed rows back into a Board.
func boardFromDisplay(t *testing.T, text string) shogi.Board {
	t.Helper()
	var b shogi.Board
	row := 0
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, "┃") {
			continue
		}
		cells := []rune(strings.TrimPrefix(line, "┃"))
		for col := 0; col < 9; col++ {
			marker, glyph := cells[col*2], string(cells[col*2+1])
			if glyph == "・" {
				continue
			}
			kind, ok := glyphKinds[glyph]
			if !ok {
				t.Fatalf("unknown glyph %q on row %d", glyph, row)
			}
			side := shogi.Sente
			if marker == 'v' {
				side = shogi.Gote
			}
			b[row][col] = shogi.Piece{Kind: kind, Side: side}
		}
		row++
	}
	if row != 9 {
		t.Fatalf("expected 9 board rows, got %d", row)
	}
	return b
}

func TestRenderDisplayRoundTrip(t *testing.T) {
	st := shogi.NewGame()
	text := shogi.Render(st, shogi.FormatDisplay)

	got := boardFromDisplay(t, text)
	if diff := cmp.Diff(st.Board, got); diff != "" {
		t.Fatalf("board mismatch (-want +got):\n%s", diff)
	}
	for _, side := range []shogi.Side{shogi.Sente, shogi.Gote} {
		for _, kind := range shogi.Kinds {
			if want, n := st.Board.Count(side, kind), got.Count(side, kind); want != n {
				t.Fatalf("%v %s: got %d want %d", side, kind.Name(), n, want)
			}
		}
	}
}

func TestRenderDisplayLayout(t *testing.T) {
	st := shogi.NewGame()
	st.Hands[shogi.Sente] = shogi.Hand{shogi.Bishop, shogi.Pawn}
	st.Board.Set(shogi.SquareAt(2, 2), shogi.Piece{Kind: shogi.Silver, Side: shogi.Sente, Promoted: true})
	text := shogi.Render(st, shogi.FormatDisplay)

	for _, want := range []string{
		"【AI の持ち駒】なし",
		"  ９ ８ ７ ６ ５ ４ ３ ２ １",
		"┏" + strings.Repeat("━", 27) + "┓",
		"┃v香v桂v銀v金v玉v金v銀v桂v香┃一",
		"┃ ・v飛 ・ ・ ・ ・ ・ 全 ・┃二",
		"┃ 香 桂 銀 金 王 金 銀 桂 香┃九",
		"【あなたの持ち駒】角 歩",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("display missing %q:\n%s", want, text)
		}
	}
}

func TestRenderPrompt(t *testing.T) {
	st := shogi.NewGame()
	st.Hands[shogi.Gote] = shogi.Hand{shogi.Pawn, shogi.Rook}
	text := shogi.Render(st, shogi.FormatPrompt)

	want := strings.Join([]string{
		"現在の盤面:",
		"後手の持駒: 歩,飛",
		"  9 8 7 6 5 4 3 2 1",
		"一 l n s g k g s n l",
		"二 . r . . . . . b .",
		"三 p p p p p p p p p",
		"四 . . . . . . . . .",
		"五 . . . . . . . . .",
		"六 . . . . . . . . .",
		"七 P P P P P P P P P",
		"八 . B . . . . . R .",
		"九 L N S G K G S N L",
		"先手の持駒: なし",
		"手番: 先手",
		"",
	}, "\n")
	if diff := cmp.Diff(want, text); diff != "" {
		t.Fatalf("prompt mismatch (-want +got):\n%s", diff)
	}
}
