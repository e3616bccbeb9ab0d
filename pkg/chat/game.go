package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shogichat/pkg/shogi"
)

var (
	ErrBusy        = errors.New("waiting for the opponent's move")
	ErrGameOver    = errors.New("game is over")
	ErrNotYourTurn = errors.New("not your turn")
	ErrPlayerTurn  = errors.New("the player is to move")
)

// The human always plays Sente and the opponent Gote.
const (
	Human    = shogi.Sente
	Opponent = shogi.Gote
)

type Role string

const (
	RoleSystem Role = "system"
	RolePlayer Role = "player"
	RoleAI     Role = "ai"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn reports what one call did. When the human move was accepted but the
// opponent failed, OpponentErr is set and the game waits for Retry.
type Turn struct {
	Player      string
	Opponent    string
	Raw         string
	OpponentErr error
	State       shogi.State
}

// Game is one chat game. The opponent call is the only point where the lock
// is released; the busy flag rejects human moves until it returns.
type Game struct {
	mu       sync.Mutex
	busy     bool
	finished bool
	state    shogi.State
	messages []Message

	suggester Suggester
	rules     shogi.Rules
	timeout   time.Duration
	log       zerolog.Logger
	onFinish  func(shogi.State)
}

type Option func(*Game)

func WithRules(r shogi.Rules) Option {
	return func(g *Game) { g.rules = r }
}

// WithTimeout bounds each opponent call; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Game) { g.timeout = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Game) { g.log = log }
}

// WithState starts from st instead of the standard position.
func WithState(st shogi.State) Option {
	return func(g *Game) { g.state = st.Clone() }
}

// WithFinish registers fn to run once when a king is captured. It runs with
// the game locked and must not call back into the Game.
func WithFinish(fn func(shogi.State)) Option {
	return func(g *Game) { g.onFinish = fn }
}

func NewGame(s Suggester, opts ...Option) *Game {
	g := &Game{
		state:     shogi.NewGame(),
		suggester: s,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.say(RoleSystem, "対局開始。あなたは先手です。「7六歩」のように指し手を入力してください。")
	g.finishLocked()
	return g
}

// NewGameFromConfig builds a game with the rules, start position and timeout
// from cfg.
func NewGameFromConfig(cfg Config, s Suggester, opts ...Option) (*Game, error) {
	st, err := cfg.NewState()
	if err != nil {
		return nil, err
	}
	base := []Option{WithRules(cfg.Rules()), WithState(st), WithTimeout(cfg.Timeout())}
	return NewGame(s, append(base, opts...)...), nil
}

// State returns a copy of the current position.
func (g *Game) State() shogi.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

func (g *Game) Messages() []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Message(nil), g.messages...)
}

func (g *Game) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Move applies the human move and then asks the opponent for a reply. A
// rejected human move returns its *shogi.MoveError and leaves the game as it
// was. An opponent failure is reported in Turn.OpponentErr, not as an error.
func (g *Game) Move(ctx context.Context, notation string) (Turn, error) {
	g.mu.Lock()
	if err := g.readyLocked(Human); err != nil {
		g.mu.Unlock()
		return Turn{}, err
	}
	next, err := g.rules.ParseAndApply(g.state, notation, Human)
	if err != nil {
		g.say(RoleSystem, "無効な手です: "+err.Error())
		st := g.state.Clone()
		g.mu.Unlock()
		g.log.Debug().Str("move", notation).Err(err).Msg("rejected player move")
		return Turn{State: st}, err
	}
	g.state = next
	g.say(RolePlayer, notation)
	g.log.Info().Str("move", notation).Int("ply", len(next.Kifu)).Msg("player move")

	turn := Turn{Player: notation}
	if g.finishLocked() {
		turn.State = g.state.Clone()
		g.mu.Unlock()
		return turn, nil
	}
	g.busy = true
	st := g.state.Clone()
	g.mu.Unlock()

	g.reply(ctx, st, &turn)
	return turn, nil
}

// Retry asks the opponent again after a failed reply, or for the first move
// of a position where the opponent is to move.
func (g *Game) Retry(ctx context.Context) (Turn, error) {
	g.mu.Lock()
	if err := g.readyLocked(Opponent); err != nil {
		g.mu.Unlock()
		return Turn{}, err
	}
	g.busy = true
	st := g.state.Clone()
	g.mu.Unlock()

	var turn Turn
	g.reply(ctx, st, &turn)
	return turn, nil
}

func (g *Game) readyLocked(side shogi.Side) error {
	switch {
	case g.busy:
		return ErrBusy
	case g.state.Over:
		return ErrGameOver
	case g.state.Turn != side && side == Human:
		return ErrNotYourTurn
	case g.state.Turn != side:
		return ErrPlayerTurn
	}
	return nil
}

// reply runs the opponent call on st without holding the lock and then
// commits the result. The caller must have set busy.
func (g *Game) reply(ctx context.Context, st shogi.State, turn *Turn) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	sug, err := g.suggest(ctx, st)
	var next shogi.State
	if err == nil {
		next, err = g.rules.ParseAndApply(st, sug.Move, Opponent)
		if err != nil {
			err = fmt.Errorf("opponent move %q: %w", sug.Move, err)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy = false
	turn.Raw = sug.Raw
	if err != nil {
		g.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Str("raw", sug.Raw).Msg("opponent failed")
		g.say(RoleSystem, "AI の指し手を取得できませんでした: "+err.Error())
		turn.OpponentErr = err
		turn.State = g.state.Clone()
		return
	}
	g.state = next
	g.say(RoleAI, sug.Move)
	g.log.Info().Str("move", sug.Move).Dur("elapsed", time.Since(start)).Int("ply", len(next.Kifu)).Msg("opponent move")
	turn.Opponent = sug.Move
	g.finishLocked()
	turn.State = g.state.Clone()
}

func (g *Game) suggest(ctx context.Context, st shogi.State) (Suggestion, error) {
	if g.suggester == nil {
		return Suggestion{}, errors.New("no opponent configured")
	}
	return g.suggester.Suggest(ctx, st, Opponent)
}

// finishLocked announces the result the first time the state is over.
func (g *Game) finishLocked() bool {
	if !g.state.Over {
		return false
	}
	if g.finished {
		return true
	}
	g.finished = true
	winner, _ := shogi.IsTerminal(g.state)
	g.say(RoleSystem, fmt.Sprintf("ゲーム終了: %sの勝ちです。", winner.Label()))
	g.log.Info().Str("winner", winner.String()).Int("ply", len(g.state.Kifu)).Msg("game over")
	if g.onFinish != nil {
		g.onFinish(g.state.Clone())
	}
	return true
}

func (g *Game) say(role Role, content string) {
	g.messages = append(g.messages, Message{Role: role, Content: content})
}
