package shogi_test

import (
	"testing"

	"shogichat/pkg/shogi"
)

func TestCheckTerminal(t *testing.T) {
	tests := []struct {
		name   string
		sfen   string
		over   bool
		winner shogi.Side
	}{
		{name: "both kings", sfen: shogi.StandardSFEN()},
		{name: "sente king missing", sfen: "4k4/9/9/9/9/9/9/9/9 b - 1", over: true, winner: shogi.Gote},
		{name: "gote king missing", sfen: "9/9/9/9/9/9/9/9/4K4 w - 1", over: true, winner: shogi.Sente},
		{name: "no kings", sfen: "9/9/9/9/4p4/9/9/9/9 b - 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := mustSFEN(t, tt.sfen)
			winner, over := shogi.CheckTerminal(&st.Board)
			if over != tt.over {
				t.Fatalf("unexpected over: got %v want %v", over, tt.over)
			}
			if over && winner != tt.winner {
				t.Fatalf("unexpected winner: got %v want %v", winner, tt.winner)
			}
			if w, o := shogi.IsTerminal(st); o != over || (o && w != winner) {
				t.Fatalf("state result disagrees with board: %v/%v vs %v/%v", w, o, winner, over)
			}
		})
	}
}
