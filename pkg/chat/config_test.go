package chat_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"shogichat/pkg/chat"
	"shogichat/pkg/shogi"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"model": "test/model", "resolution": "reachable", "timeout_millis": 1500}`)
	cfg, err := chat.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Model != "test/model" {
		t.Fatalf("unexpected model: %s", cfg.Model)
	}
	if cfg.MaxTokens != 100 || cfg.APIKeyEnv != "OPENROUTER_API_KEY" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.Rules().Resolution != shogi.Reachable {
		t.Fatalf("unexpected resolution: %v", cfg.Rules().Resolution)
	}
	if cfg.Timeout() != 1500*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout())
	}
}

func TestLoadConfigRejects(t *testing.T) {
	for _, body := range []string{
		`{"provider": "telepathy"}`,
		`{"provider": "usi"}`,
		`{"start_sfen": "not a position"}`,
		`{"model": `,
	} {
		path := writeConfig(t, t.TempDir(), body)
		if _, err := chat.LoadConfig(path); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestConfigNewState(t *testing.T) {
	cfg := chat.DefaultConfig()
	st, err := cfg.NewState()
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	if st.SFEN(1) != shogi.StandardSFEN() {
		t.Fatalf("unexpected start: %s", st.SFEN(1))
	}

	cfg.StartSFEN = "4k4/9/9/9/9/9/9/9/4K4 w P 1"
	st, err = cfg.NewState()
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	if st.Turn != shogi.Gote || st.Hand(shogi.Sente).Count(shogi.Pawn) != 1 {
		t.Fatalf("unexpected custom start: %+v", st)
	}
}

func TestEnginePath(t *testing.T) {
	cfg := chat.Config{Engine: "engine/YaneuraOu"}
	got, err := cfg.EnginePath("/opt/shogi")
	if err != nil {
		t.Fatalf("engine path: %v", err)
	}
	if got != filepath.Join("/opt/shogi", "engine/YaneuraOu") {
		t.Fatalf("unexpected engine path: %s", got)
	}
	if _, err := (chat.Config{}).EnginePath("/opt/shogi"); err == nil {
		t.Fatal("expected error for empty engine")
	}
}

func TestResolveConfigExplicit(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"provider": "usi", "engine": "bin/engine", "millis": 250}`)
	cfg, base, err := chat.ResolveConfig(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Provider != chat.ProviderUSI || cfg.Millis != 250 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if base != filepath.Dir(path) {
		t.Fatalf("unexpected base dir: got %s want %s", base, filepath.Dir(path))
	}
}
