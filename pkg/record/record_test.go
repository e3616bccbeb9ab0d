package record_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"shogichat/pkg/record"
	"shogichat/pkg/shogi"
)

func finishedGame(t *testing.T) shogi.State {
	t.Helper()
	st, err := shogi.ParseSFEN("4k4/4R4/9/9/9/9/9/9/4K4 b P 1")
	if err != nil {
		t.Fatalf("sfen: %v", err)
	}
	for _, step := range []struct {
		notation string
		side     shogi.Side
	}{
		{"5五歩打", shogi.Sente},
		{"5二玉", shogi.Gote},
		{"5二歩成", shogi.Sente},
	} {
		st, err = shogi.ParseAndApply(st, step.notation, step.side)
		if err != nil {
			t.Fatalf("apply %s: %v", step.notation, err)
		}
	}
	return st
}

func TestFromState(t *testing.T) {
	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := record.FromState("g1", "usi", finishedGame(t), finished)

	if rec.Winner != "sente" || rec.Result != record.ResultKingCapture || rec.MoveCount != 3 {
		t.Fatalf("unexpected summary: %+v", rec)
	}
	if rec.FinishedAt != finished.UnixMilli() {
		t.Fatalf("unexpected finish time: %d", rec.FinishedAt)
	}
	want := []record.MoveEntry{
		{Ply: 1, Side: "sente", Notation: "5五歩打", To: "55", Piece: "P", Drop: true},
		{Ply: 2, Side: "gote", Notation: "5二玉", From: "51", To: "52", Piece: "k", Capture: "R"},
		{Ply: 3, Side: "sente", Notation: "5二歩成", From: "55", To: "52", Piece: "+P", Promote: true, Capture: "K"},
	}
	if diff := cmp.Diff(want, rec.Moves); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(rec.KIF, "   4 投了\n") {
		t.Fatalf("kif should end with the result:\n%s", rec.KIF)
	}
}

func TestFromStateUnfinished(t *testing.T) {
	rec := record.FromState("g2", "openrouter", shogi.NewGame(), time.Unix(0, 0))
	if rec.Winner != "" || rec.Result != "" || rec.StartSFEN != shogi.StandardSFEN() {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.parquet")
	first := record.FromState("g1", "usi", finishedGame(t), time.Unix(1700000000, 0))
	second := record.FromState("g2", "openrouter", shogi.NewGame(), time.Unix(1700000100, 0))

	r := record.NewRecorder(path, zerolog.Nop())
	r.Add(first)
	r.Add(second)
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	r.Add(first)

	got, err := record.ReadParquet(path, 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected record count: %d", len(got))
	}
	if diff := cmp.Diff(first, got[0]); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if got[1].GameID != "g2" || got[1].MoveCount != 0 {
		t.Fatalf("unexpected second record: %+v", got[1])
	}
}

func TestValidateSchema(t *testing.T) {
	schema, err := record.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if err := record.ValidateSchema(schema, record.GameRecord{}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	schema.Fields = schema.Fields[:len(schema.Fields)-1]
	err = record.ValidateSchema(schema, record.GameRecord{})
	if err == nil || !strings.Contains(err.Error(), "extra=[moves]") {
		t.Fatalf("expected mismatch on moves, got %v", err)
	}
}

func TestRecorderWriterFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "games.parquet")
	r := record.NewRecorder(path, zerolog.Nop())
	rec := record.FromState("g1", "usi", finishedGame(t), time.Unix(0, 0))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 40; i++ {
			r.Add(rec)
		}
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Add blocked after the writer failed")
	}

	closed := make(chan error, 1)
	go func() { closed <- r.Close() }()
	select {
	case err := <-closed:
		if err == nil {
			t.Fatal("expected the writer error from Close")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Close blocked after the writer failed")
	}
}
