package usi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"shogichat/pkg/chat"
	"shogichat/pkg/shogi"
)

// ErrResign is returned when the engine answers resign or declares a win
// instead of moving.
var ErrResign = errors.New("engine resigned")

// ToNotation converts a USI move (7g7f, 8h2b+, P*5e) into notation the
// applier reads, resolved against st.
func ToNotation(st shogi.State, move string) (string, error) {
	switch move {
	case "resign", "win":
		return "", fmt.Errorf("%w: %s", ErrResign, move)
	}
	if len(move) == 4 && move[1] == '*' {
		kind, ok := shogi.KindFromLetter(rune(move[0]))
		if !ok || kind == shogi.King {
			return "", fmt.Errorf("invalid drop piece in %q", move)
		}
		to, ok := parseSquare(move[2:4])
		if !ok {
			return "", fmt.Errorf("invalid drop square in %q", move)
		}
		return shogi.DropNotation(kind, to), nil
	}
	if len(move) != 4 && !(len(move) == 5 && move[4] == '+') {
		return "", fmt.Errorf("invalid usi move %q", move)
	}
	from, ok := parseSquare(move[0:2])
	if !ok {
		return "", fmt.Errorf("invalid source square in %q", move)
	}
	to, ok := parseSquare(move[2:4])
	if !ok {
		return "", fmt.Errorf("invalid destination square in %q", move)
	}
	return shogi.Notation(st, from, to, len(move) == 5)
}

// parseSquare reads a USI square such as 7g: file digit then rank letter.
func parseSquare(text string) (shogi.Square, bool) {
	file, rank := text[0], text[1]
	if file < '1' || file > '9' || rank < 'a' || rank > 'i' {
		return shogi.Square{}, false
	}
	return shogi.SquareAt(int(file-'0'), int(rank-'a')+1), true
}

// Suggester lets a USI engine play the opponent.
type Suggester struct {
	mu      sync.Mutex
	session *Session
	millis  int
}

func NewSuggester(s *Session, millis int) *Suggester {
	return &Suggester{session: s, millis: millis}
}

func (u *Suggester) Suggest(ctx context.Context, st shogi.State, side shogi.Side) (chat.Suggestion, error) {
	pos := st.Clone()
	pos.Turn = side

	u.mu.Lock()
	res, err := u.session.BestMove(ctx, pos.SFEN(len(st.Kifu)+1), u.millis)
	u.mu.Unlock()
	if err != nil {
		return chat.Suggestion{}, err
	}
	raw := "bestmove " + res.Move
	if res.HasScore {
		raw += " (" + res.Score.String() + ")"
	}
	notation, err := ToNotation(st, res.Move)
	if err != nil {
		return chat.Suggestion{Raw: raw}, err
	}
	return chat.Suggestion{Move: notation, Raw: raw}, nil
}
