package web

import (
	"errors"
	"fmt"
	"strconv"

	"shogichat/pkg/chat"
	"shogichat/pkg/shogi"
)

type piecePayload struct {
	Kind     string `json:"kind"`
	Owner    string `json:"owner,omitempty"`
	Promoted bool   `json:"promoted"`
	Present  bool   `json:"present"`
}

type gamePayload struct {
	ID       string              `json:"id"`
	Turn     string              `json:"turn"`
	Over     bool                `json:"over"`
	Winner   string              `json:"winner,omitempty"`
	Busy     bool                `json:"busy"`
	SFEN     string              `json:"sfen"`
	Board    [][]piecePayload    `json:"board"`
	Hands    map[string][]string `json:"hands"`
	Text     string              `json:"text"`
	Log      []string            `json:"log"`
	Messages []chat.Message      `json:"messages"`
}

type turnPayload struct {
	Player        string      `json:"player,omitempty"`
	Opponent      string      `json:"opponent,omitempty"`
	Raw           string      `json:"raw,omitempty"`
	OpponentError string      `json:"opponentError,omitempty"`
	Game          gamePayload `json:"game"`
}

type errorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// moveRequest is either typed notation or a click on the board. A click
// names squares as two digits, file then rank; Drop names the kind by its
// kanji (歩) or letter (P).
type moveRequest struct {
	Notation string `json:"notation,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Drop     string `json:"drop,omitempty"`
	Promote  bool   `json:"promote,omitempty"`
}

func newGamePayload(id string, g *chat.Game) gamePayload {
	st := g.State()
	p := gamePayload{
		ID:       id,
		Turn:     st.Turn.String(),
		Over:     st.Over,
		Busy:     g.Busy(),
		SFEN:     st.SFEN(len(st.Kifu) + 1),
		Board:    make([][]piecePayload, 9),
		Hands:    map[string][]string{},
		Text:     shogi.Render(st, shogi.FormatDisplay),
		Log:      append([]string{}, st.Log...),
		Messages: g.Messages(),
	}
	if winner, over := shogi.IsTerminal(st); over {
		p.Winner = winner.String()
	}
	for row := 0; row < 9; row++ {
		p.Board[row] = make([]piecePayload, 9)
		for col := 0; col < 9; col++ {
			piece := st.Board[row][col]
			if piece.Empty() {
				continue
			}
			p.Board[row][col] = piecePayload{
				Kind:     piece.Kind.Letter(),
				Owner:    piece.Side.String(),
				Promoted: piece.Promoted,
				Present:  true,
			}
		}
	}
	for _, side := range []shogi.Side{shogi.Sente, shogi.Gote} {
		p.Hands[side.String()] = append([]string{}, st.Hand(side).Names()...)
	}
	return p
}

func newTurnPayload(id string, g *chat.Game, turn chat.Turn) turnPayload {
	p := turnPayload{
		Player:   turn.Player,
		Opponent: turn.Opponent,
		Raw:      turn.Raw,
		Game:     newGamePayload(id, g),
	}
	if turn.OpponentErr != nil {
		p.OpponentError = turn.OpponentErr.Error()
	}
	return p
}

// notation turns a request into the notation the game applies.
func (req moveRequest) notation(st shogi.State) (string, error) {
	if req.Notation != "" {
		return req.Notation, nil
	}
	to, err := parseSquare(req.To)
	if err != nil {
		return "", fmt.Errorf("to: %w", err)
	}
	if req.Drop != "" {
		kind, ok := parseKind(req.Drop)
		if !ok {
			return "", fmt.Errorf("unknown drop piece %q", req.Drop)
		}
		return shogi.DropNotation(kind, to), nil
	}
	from, err := parseSquare(req.From)
	if err != nil {
		return "", fmt.Errorf("from: %w", err)
	}
	return shogi.Notation(st, from, to, req.Promote)
}

func parseSquare(text string) (shogi.Square, error) {
	if len(text) != 2 {
		return shogi.Square{}, errors.New("square must be two digits")
	}
	file, err1 := strconv.Atoi(text[:1])
	rank, err2 := strconv.Atoi(text[1:])
	if err1 != nil || err2 != nil || file < 1 || rank < 1 {
		return shogi.Square{}, fmt.Errorf("invalid square %q", text)
	}
	return shogi.SquareAt(file, rank), nil
}

func parseKind(text string) (shogi.Kind, bool) {
	for _, kind := range shogi.Kinds {
		if kind == shogi.King {
			continue
		}
		if text == kind.Name() || text == kind.Letter() {
			return kind, true
		}
	}
	return shogi.NoKind, false
}
