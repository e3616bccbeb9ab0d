// Package opponent builds the move suggester named by a config.
package opponent

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"shogichat/pkg/chat"
	"shogichat/pkg/llm"
	"shogichat/pkg/usi"
)

// Opponent is a configured suggester. Close releases an engine process when
// one was started.
type Opponent struct {
	chat.Suggester
	// Name identifies the opponent in records, such as the model id or the
	// engine's id name.
	Name   string
	closer io.Closer
}

func (o *Opponent) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

// Open starts the opponent for cfg. dir is the directory relative engine
// paths are resolved against.
func Open(ctx context.Context, cfg chat.Config, dir string, log zerolog.Logger) (*Opponent, error) {
	switch cfg.Provider {
	case chat.ProviderUSI:
		path, err := cfg.EnginePath(dir)
		if err != nil {
			return nil, err
		}
		session, err := usi.StartSession(ctx, log, path)
		if err != nil {
			return nil, fmt.Errorf("start engine %s: %w", path, err)
		}
		hsCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()
		if err := session.Handshake(hsCtx, nil); err != nil {
			session.Close()
			return nil, fmt.Errorf("engine handshake: %w", err)
		}
		name := session.Name
		if name == "" {
			name = path
		}
		log.Info().Str("engine", name).Int("millis", cfg.Millis).Msg("usi opponent ready")
		return &Opponent{Suggester: usi.NewSuggester(session, cfg.Millis), Name: name, closer: session}, nil
	case chat.ProviderOpenRouter:
		client := llm.NewClient(cfg, log)
		if client.APIKey == "" {
			log.Warn().Str("env", cfg.APIKeyEnv).Msg("api key is not set")
		}
		log.Info().Str("model", cfg.Model).Msg("llm opponent ready")
		return &Opponent{Suggester: client, Name: cfg.Model}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
