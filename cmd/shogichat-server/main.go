package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"shogichat/pkg/chat"
	"shogichat/pkg/opponent"
	"shogichat/pkg/record"
	"shogichat/pkg/shogi"
	"shogichat/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default: search upward from the working directory)")
	listen := flag.String("listen", "", "listen address (overrides config)")
	recordPath := flag.String("record", "", "write finished games to this parquet file (overrides config)")
	jsonLog := flag.Bool("json-log", false, "log JSON lines instead of console output")
	verbose := flag.Bool("v", false, "log debug output")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if *jsonLog {
		log = zerolog.New(os.Stderr)
	}
	log = log.Level(level).With().Timestamp().Logger()

	cfg, dir, err := chat.ResolveConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *recordPath != "" {
		cfg.Record = *recordPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opp, err := opponent.Open(ctx, cfg, dir, log)
	if err != nil {
		fatal(err)
	}
	defer opp.Close()

	var recorder *record.Recorder
	if cfg.Record != "" {
		recorder = record.NewRecorder(cfg.Record, log)
	}
	newGame := func(id string) (*chat.Game, error) {
		opts := []chat.Option{chat.WithLogger(log.With().Str("game", id).Logger())}
		if recorder != nil {
			opts = append(opts, chat.WithFinish(func(st shogi.State) {
				recorder.Add(record.FromState(id, opp.Name, st, time.Now()))
			}))
		}
		return chat.NewGameFromConfig(cfg, opp, opts...)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           web.NewServer(newGame, log, os.Stdout),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Listen).Str("opponent", opp.Name).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = srv.Shutdown(shutdownCtx)
		cancel()
	}
	if recorder != nil {
		if cerr := recorder.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("write records")
		}
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
