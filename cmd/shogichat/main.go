package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"shogichat/pkg/chat"
	"shogichat/pkg/opponent"
	"shogichat/pkg/record"
	"shogichat/pkg/shogi"
)

const help = `コマンド:
  7六歩 など   指し手を入力
  board        盤面を表示
  kif          棋譜を KIF 形式で表示
  retry        AI にもう一度指し手を聞く
  quit         終了`

func main() {
	configPath := flag.String("config", "", "path to config.json (default: search upward from the working directory)")
	provider := flag.String("provider", "", "override the provider (openrouter or usi)")
	recordPath := flag.String("record", "", "write the finished game to this parquet file")
	verbose := flag.Bool("v", false, "log debug output to stderr")
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	cfg, dir, err := chat.ResolveConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *provider != "" {
		cfg.Provider = *provider
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
	opts := []chat.Option{chat.WithLogger(log)}
	if cfg.Record != "" {
		recorder = record.NewRecorder(cfg.Record, log)
		id := "cli-" + time.Now().Format("20060102-150405")
		opts = append(opts, chat.WithFinish(func(st shogi.State) {
			recorder.Add(record.FromState(id, opp.Name, st, time.Now()))
		}))
	}
	game, err := chat.NewGameFromConfig(cfg, opp, opts...)
	if err != nil {
		fatal(err)
	}

	err = run(ctx, game, os.Stdin, os.Stdout)
	if recorder != nil {
		if cerr := recorder.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("write record")
		}
	}
	if err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, game *chat.Game, in io.Reader, out io.Writer) error {
	seen := 0
	flush := func() {
		msgs := game.Messages()
		for _, m := range msgs[seen:] {
			fmt.Fprintf(out, "[%s] %s\n", m.Role, m.Content)
		}
		seen = len(msgs)
	}

	fmt.Fprintln(out, help)
	fmt.Fprintln(out, shogi.Render(game.State(), shogi.FormatDisplay))
	if game.State().Turn == chat.Opponent {
		if _, err := game.Retry(ctx); err != nil && !errors.Is(err, chat.ErrGameOver) {
			return err
		}
		fmt.Fprintln(out, shogi.Render(game.State(), shogi.FormatDisplay))
	}
	flush()

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "> ")
		line, readErr := reader.ReadBytes('\n')
		if len(line) == 0 && readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}
		text, err := chat.DecodeInput(line)
		if err != nil {
			fmt.Fprintf(out, "入力を読めませんでした: %v\n", err)
			continue
		}

		switch strings.ToLower(text) {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, help)
			continue
		case "board":
			fmt.Fprintln(out, shogi.Render(game.State(), shogi.FormatDisplay))
			continue
		case "kif":
			fmt.Fprint(out, shogi.FormatKIF(game.State()))
			continue
		case "retry":
			_, err = game.Retry(ctx)
		default:
			_, err = game.Move(ctx, text)
		}

		var moveErr *shogi.MoveError
		switch {
		case err == nil, errors.As(err, &moveErr):
		case errors.Is(err, chat.ErrGameOver):
			fmt.Fprintln(out, "対局は終了しています。")
		case errors.Is(err, chat.ErrNotYourTurn):
			fmt.Fprintln(out, "AI の手番です。retry で指し手を聞き直してください。")
		case errors.Is(err, chat.ErrPlayerTurn):
			fmt.Fprintln(out, "あなたの手番です。")
		default:
			return err
		}
		if err == nil {
			fmt.Fprintln(out, shogi.Render(game.State(), shogi.FormatDisplay))
		}
		flush()
		if ctx.Err() != nil {
			return nil
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
