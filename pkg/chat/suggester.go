package chat

import (
	"context"

	"shogichat/pkg/shogi"
)

// Suggestion is an opponent move. Move is the notation to apply and Raw is
// what the opponent actually said, kept for the transcript.
type Suggestion struct {
	Move string
	Raw  string
}

// Suggester produces the next move for side. Implementations must not modify
// st.
type Suggester interface {
	Suggest(ctx context.Context, st shogi.State, side shogi.Side) (Suggestion, error)
}

// SuggesterFunc adapts a function to Suggester.
type SuggesterFunc func(ctx context.Context, st shogi.State, side shogi.Side) (Suggestion, error)

func (f SuggesterFunc) Suggest(ctx context.Context, st shogi.State, side shogi.Side) (Suggestion, error) {
	return f(ctx, st, side)
}
