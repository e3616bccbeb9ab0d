package shogi

import (
	"errors"
	"fmt"
	"strings"
)

// Hand is a side's captured pieces in the order they were taken. Entries are
// always base kinds.
type Hand []Kind

func (h Hand) Count(kind Kind) int {
	n := 0
	for _, k := range h {
		if k == kind {
			n++
		}
	}
	return n
}

func (h Hand) Names() []string {
	names := make([]string, 0, len(h))
	for _, k := range h {
		names = append(names, k.Name())
	}
	return names
}

// without returns a copy of h with the first entry of kind removed.
func (h Hand) without(kind Kind) (Hand, bool) {
	for i, k := range h {
		if k != kind {
			continue
		}
		out := make(Hand, 0, len(h)-1)
		out = append(out, h[:i]...)
		return append(out, h[i+1:]...), true
	}
	return h, false
}

// Played is one applied move in structured form.
type Played struct {
	Side     Side
	From     *Square
	To       Square
	Piece    Piece // the piece as it stands on To after the move
	Promote  bool
	Drop     bool
	Capture  Kind
	Notation string
}

// State is a whole game position. Transitions never modify a State that a
// caller still holds; they work on a Clone.
type State struct {
	Board  Board
	Turn   Side
	Hands  [2]Hand
	Log    []string
	Kifu   []Played
	Over   bool
	Winner Side
	// Start is the SFEN of a non-standard starting position.
	Start string
}

// NewGame returns the standard starting position with Sente to move.
func NewGame() State {
	return State{Board: standardBoard(), Turn: Sente}
}

func (s State) Hand(side Side) Hand {
	return s.Hands[side]
}

// LastTo is the destination of the previous move, used by 同 notation.
func (s State) LastTo() (Square, bool) {
	if len(s.Kifu) == 0 {
		return Square{}, false
	}
	return s.Kifu[len(s.Kifu)-1].To, true
}

func (s State) Clone() State {
	clone := s
	for i := range s.Hands {
		if s.Hands[i] != nil {
			clone.Hands[i] = append(Hand(nil), s.Hands[i]...)
		}
	}
	if s.Log != nil {
		clone.Log = append([]string(nil), s.Log...)
	}
	if s.Kifu != nil {
		clone.Kifu = make([]Played, len(s.Kifu))
		for i, mv := range s.Kifu {
			if mv.From != nil {
				from := *mv.From
				mv.From = &from
			}
			clone.Kifu[i] = mv
		}
	}
	return clone
}

// SFEN encodes the position; moveNumber is the trailing ply counter.
func (s State) SFEN(moveNumber int) string {
	rows := make([]string, 0, 9)
	for row := 0; row < 9; row++ {
		rows = append(rows, s.Board.rowToSFEN(row))
	}
	turn := "b"
	if s.Turn == Gote {
		turn = "w"
	}
	hand := buildHands(s.Hands[Sente], s.Hands[Gote])
	if hand == "" {
		hand = "-"
	}
	return fmt.Sprintf("%s %s %s %d", strings.Join(rows, "/"), turn, hand, moveNumber)
}

var handOrder = []Kind{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

func buildHands(black, white Hand) string {
	var b strings.Builder
	for _, kind := range handOrder {
		if count := black.Count(kind); count > 0 {
			if count > 1 {
				b.WriteString(fmt.Sprintf("%d", count))
			}
			b.WriteString(kind.Letter())
		}
	}
	for _, kind := range handOrder {
		if count := white.Count(kind); count > 0 {
			if count > 1 {
				b.WriteString(fmt.Sprintf("%d", count))
			}
			b.WriteString(strings.ToLower(kind.Letter()))
		}
	}
	return b.String()
}

// ParseSFEN builds a State from an SFEN string. The move log starts empty.
func ParseSFEN(sfen string) (State, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(sfen), "sfen "))
	if len(fields) < 3 {
		return State{}, fmt.Errorf("invalid sfen: %s", sfen)
	}
	st := State{Start: sfen}
	if err := parseBoardSFEN(fields[0], &st.Board); err != nil {
		return State{}, err
	}
	switch fields[1] {
	case "b":
		st.Turn = Sente
	case "w":
		st.Turn = Gote
	default:
		return State{}, fmt.Errorf("invalid sfen turn: %s", fields[1])
	}
	if err := parseHandsSFEN(fields[2], &st); err != nil {
		return State{}, err
	}
	if winner, over := CheckTerminal(&st.Board); over {
		st.Over, st.Winner = true, winner
	}
	return st, nil
}

func parseHandsSFEN(hand string, st *State) error {
	if hand == "-" {
		return nil
	}
	count := 0
	for _, r := range hand {
		if r >= '0' && r <= '9' {
			count = count*10 + int(r-'0')
			continue
		}
		if count == 0 {
			count = 1
		}
		side := Sente
		if r >= 'a' && r <= 'z' {
			side = Gote
			r = r - 'a' + 'A'
		}
		kind, ok := KindFromLetter(r)
		if !ok || kind == King {
			return fmt.Errorf("unknown hand piece %c", r)
		}
		if held := st.Hands[Sente].Count(kind) + st.Hands[Gote].Count(kind) + count; held > pieceLimit[kind] {
			return fmt.Errorf("too many %s in hand: %d", kind.Name(), held)
		}
		for i := 0; i < count; i++ {
			st.Hands[side] = append(st.Hands[side], kind)
		}
		count = 0
	}
	if count != 0 {
		return errors.New("trailing hand count")
	}
	return nil
}

// pieceLimit is how many of each kind a full set holds.
var pieceLimit = map[Kind]int{
	Rook: 2, Bishop: 2, Gold: 4, Silver: 4, Knight: 4, Lance: 4, Pawn: 18,
}
