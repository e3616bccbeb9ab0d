package usi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"
)

var errStdoutClosed = errors.New("engine stdout closed")

type sender interface {
	Send(line string) error
}

// Session drives one engine. A goroutine pumps its output into a channel so
// every wait can be cancelled through its context.
type Session struct {
	out    sender
	closer io.Closer
	events chan Event
	// readErr is set before events is closed.
	readErr error
	log     zerolog.Logger
	// abandoned counts searches stopped before their bestmove arrived.
	abandoned int

	// Name is the engine's "id name", filled in by Handshake.
	Name string
}

// StartSession launches the engine at path and starts reading its output.
func StartSession(ctx context.Context, log zerolog.Logger, path string, args ...string) (*Session, error) {
	engine, err := StartEngine(ctx, path, args...)
	if err != nil {
		return nil, err
	}
	s := newSession(engine, engine.stdout, log)
	s.closer = engine
	go func() {
		scanner := bufio.NewScanner(engine.Stderr())
		for scanner.Scan() {
			s.log.Debug().Str("stderr", scanner.Text()).Msg("engine")
		}
	}()
	return s, nil
}

// NewSession speaks USI over an existing pair of streams, such as an
// in-process engine or a network connection.
func NewSession(r io.Reader, w io.Writer, log zerolog.Logger) *Session {
	lw := &lineWriter{w: w}
	s := newSession(lw, r, log)
	s.closer = closerFunc(func() error {
		lw.shutdown()
		return nil
	})
	return s
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newSession(out sender, r io.Reader, log zerolog.Logger) *Session {
	s := &Session{out: out, events: make(chan Event, 64), log: log.With().Str("component", "usi").Logger()}
	reader := NewReader(r)
	go func() {
		defer close(s.events)
		for {
			event, err := reader.Next()
			if err != nil {
				s.readErr = err
				return
			}
			s.events <- event
		}
	}()
	return s
}

func (s *Session) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Handshake runs usi/usiok, applies options in name order and waits for
// readyok.
func (s *Session) Handshake(ctx context.Context, options map[string]string) error {
	if err := s.out.Send("usi"); err != nil {
		return err
	}
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			return fmt.Errorf("usi handshake: %w", err)
		}
		if event.Type == EventID && event.Key == "name" {
			s.Name = event.Value
		}
		if event.Type == EventUSIOK {
			break
		}
	}
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.out.Send(fmt.Sprintf("setoption name %s value %s", name, options[name])); err != nil {
			return err
		}
	}
	if err := s.out.Send("isready"); err != nil {
		return err
	}
	if _, err := s.waitForEvent(ctx, EventReadyOK); err != nil {
		return fmt.Errorf("usi handshake: %w", err)
	}
	if err := s.out.Send("usinewgame"); err != nil {
		return err
	}
	s.log.Info().Str("engine", s.Name).Msg("engine ready")
	return nil
}

// Result is the outcome of one search. Score is from the side to move and is
// only meaningful when HasScore is set.
type Result struct {
	Move     string
	Ponder   string
	Score    Score
	HasScore bool
}

// BestMove searches the SFEN position for moveTimeMs milliseconds. A search
// cut short by ctx is stopped, and its late bestmove is skipped by the next
// call. A Session runs one search at a time.
func (s *Session) BestMove(ctx context.Context, sfen string, moveTimeMs int) (Result, error) {
	for s.abandoned > 0 {
		if _, err := s.waitForEvent(ctx, EventBestMove); err != nil {
			return Result{}, err
		}
		s.abandoned--
	}
	if err := s.out.Send("position sfen " + sfen); err != nil {
		return Result{}, err
	}
	if moveTimeMs <= 0 {
		moveTimeMs = 1
	}
	if err := s.out.Send(fmt.Sprintf("go movetime %d", moveTimeMs)); err != nil {
		return Result{}, err
	}
	var res Result
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.abandoned++
				_ = s.out.Send("stop")
			}
			return Result{}, err
		}
		switch event.Type {
		case EventInfo:
			if score, ok := parseInfoScore(event.Raw); ok {
				res.Score, res.HasScore = score, true
			}
		case EventBestMove:
			res.Move, res.Ponder = event.Move, event.Ponder
			s.log.Debug().Str("sfen", sfen).Str("move", res.Move).Str("score", res.Score.String()).Msg("bestmove")
			return res, nil
		}
	}
}

func (s *Session) waitForEvent(ctx context.Context, want EventType) (Event, error) {
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			return Event{}, err
		}
		if event.Type == want {
			return event, nil
		}
	}
}

func (s *Session) nextEvent(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case event, ok := <-s.events:
		if ok {
			return event, nil
		}
		if s.readErr == nil || errors.Is(s.readErr, io.EOF) {
			return Event{}, errStdoutClosed
		}
		return Event{}, s.readErr
	}
}
