package shogi

import (
	"errors"
	"fmt"
	"strings"
)

// Square addresses a cell. Col 0 is file 9 and Row 0 is rank 1, matching the
// order the board is drawn in.
type Square struct {
	Col int
	Row int
}

// SquareAt converts traditional coordinates (file 1-9 right to left,
// rank 1-9 top to bottom) to a Square.
func SquareAt(file, rank int) Square {
	return Square{Col: 9 - file, Row: rank - 1}
}

func (s Square) File() int { return 9 - s.Col }
func (s Square) Rank() int { return s.Row + 1 }

func (s Square) Valid() bool {
	return s.Col >= 0 && s.Col < 9 && s.Row >= 0 && s.Row < 9
}

func (s Square) String() string {
	return fmt.Sprintf("%d%s", s.File(), rankKanji[s.Row])
}

// Board is a value type; assigning it copies every cell.
type Board [9][9]Piece

func (b *Board) At(s Square) Piece {
	if !s.Valid() {
		return Piece{}
	}
	return b[s.Row][s.Col]
}

func (b *Board) Set(s Square, p Piece) {
	if !s.Valid() {
		return
	}
	b[s.Row][s.Col] = p
}

// Count returns how many pieces of the given side and base kind are on the
// board, promoted or not.
func (b *Board) Count(side Side, kind Kind) int {
	n := 0
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			p := b[r][c]
			if !p.Empty() && p.Side == side && p.Kind == kind {
				n++
			}
		}
	}
	return n
}

const standardSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

// StandardSFEN is the even-game starting position.
func StandardSFEN() string {
	return standardSFEN
}

func standardBoard() Board {
	var b Board
	if err := parseBoardSFEN(strings.Fields(standardSFEN)[0], &b); err != nil {
		panic(err)
	}
	return b
}

func parseBoardSFEN(board string, b *Board) error {
	ranks := strings.Split(board, "/")
	if len(ranks) != 9 {
		return fmt.Errorf("invalid board ranks: %d", len(ranks))
	}
	var kings [2]int
	for row, rankText := range ranks {
		col := 0
		runes := []rune(rankText)
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			if r >= '1' && r <= '9' {
				col += int(r - '0')
				continue
			}
			promoted := false
			if r == '+' {
				promoted = true
				i++
				if i >= len(runes) {
					return errors.New("dangling promotion marker")
				}
				r = runes[i]
			}
			side := Sente
			if r >= 'a' && r <= 'z' {
				side = Gote
				r = r - 'a' + 'A'
			}
			kind, ok := KindFromLetter(r)
			if !ok {
				return fmt.Errorf("unknown sfen piece %c", r)
			}
			if col > 8 {
				return errors.New("too many files in rank")
			}
			if promoted && !kind.Promotable() {
				return fmt.Errorf("%s cannot be promoted", kind.Name())
			}
			if kind == King {
				if kings[side]++; kings[side] > 1 {
					return fmt.Errorf("more than one king for %s", side)
				}
			}
			b[row][col] = Piece{Kind: kind, Side: side, Promoted: promoted}
			col++
		}
		if col != 9 {
			return fmt.Errorf("rank %d does not have 9 files", row+1)
		}
	}
	return nil
}

func (b *Board) rowToSFEN(row int) string {
	var sb strings.Builder
	empty := 0
	flushEmpty := func() {
		if empty > 0 {
			sb.WriteString(fmt.Sprintf("%d", empty))
			empty = 0
		}
	}
	for col := 0; col < 9; col++ {
		p := b[row][col]
		if p.Empty() {
			empty++
			continue
		}
		flushEmpty()
		sb.WriteString(p.Letter())
	}
	flushEmpty()
	return sb.String()
}
