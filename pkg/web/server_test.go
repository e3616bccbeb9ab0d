package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"shogichat/pkg/chat"
	"shogichat/pkg/shogi"
	"shogichat/pkg/web"
)

// script answers each opponent call with the next move in order.
func script(moves ...string) chat.Suggester {
	var mu sync.Mutex
	return chat.SuggesterFunc(func(ctx context.Context, st shogi.State, side shogi.Side) (chat.Suggestion, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(moves) == 0 {
			return chat.Suggestion{}, errors.New("out of moves")
		}
		mv := moves[0]
		moves = moves[1:]
		return chat.Suggestion{Move: mv, Raw: mv}, nil
	})
}

func newTestServer(t *testing.T, s chat.Suggester) (*web.Server, *httptest.Server) {
	t.Helper()
	srv := web.NewServer(func(id string) (*chat.Game, error) {
		return chat.NewGame(s, chat.WithRules(shogi.Rules{Resolution: shogi.Reachable})), nil
	}, zerolog.Nop(), nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode, out
}

func createGame(t *testing.T, base string) string {
	t.Helper()
	status, body := do(t, http.MethodPost, base+"/api/games", nil)
	if status != http.StatusCreated {
		t.Fatalf("create status %d: %v", status, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("missing id: %v", body)
	}
	return id
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, script())
	status, body := do(t, http.MethodGet, ts.URL+"/health", nil)
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected health: %d %v", status, body)
	}
}

func TestCreateAndGet(t *testing.T) {
	_, ts := newTestServer(t, script())
	id := createGame(t, ts.URL)

	status, body := do(t, http.MethodGet, ts.URL+"/api/games/"+id, nil)
	if status != http.StatusOK {
		t.Fatalf("get status %d", status)
	}
	if body["turn"] != "sente" || body["over"] != false || body["sfen"] != shogi.StandardSFEN() {
		t.Fatalf("unexpected game: %v", body)
	}
	board, _ := body["board"].([]any)
	if len(board) != 9 {
		t.Fatalf("board should have 9 rows, got %d", len(board))
	}

	status, body = do(t, http.MethodGet, ts.URL+"/api/games", nil)
	if status != http.StatusOK {
		t.Fatalf("list status %d", status)
	}
	if diff := cmp.Diff([]any{id}, body["games"]); diff != "" {
		t.Fatalf("games mismatch (-want +got):\n%s", diff)
	}

	status, _ = do(t, http.MethodGet, ts.URL+"/api/games/missing", nil)
	if status != http.StatusNotFound {
		t.Fatalf("missing game status %d", status)
	}
}

func TestMoveByNotationAndClick(t *testing.T) {
	_, ts := newTestServer(t, script("3四歩", "8四歩"))
	id := createGame(t, ts.URL)

	status, body := do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/moves", map[string]any{"notation": "7六歩"})
	if status != http.StatusOK {
		t.Fatalf("move status %d: %v", status, body)
	}
	if body["player"] != "7六歩" || body["opponent"] != "3四歩" {
		t.Fatalf("unexpected turn: %v", body)
	}

	status, body = do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/moves", map[string]any{"from": "27", "to": "26"})
	if status != http.StatusOK {
		t.Fatalf("click status %d: %v", status, body)
	}
	if body["player"] != "2六歩(27)" || body["opponent"] != "8四歩" {
		t.Fatalf("unexpected click turn: %v", body)
	}
	game, _ := body["game"].(map[string]any)
	log, _ := game["log"].([]any)
	if len(log) != 4 {
		t.Fatalf("log should hold 4 moves, got %v", log)
	}
}

func TestMoveErrors(t *testing.T) {
	_, ts := newTestServer(t, script())
	id := createGame(t, ts.URL)
	url := ts.URL + "/api/games/" + id + "/moves"

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{name: "bad notation", body: map[string]any{"notation": "あいう"}, status: http.StatusUnprocessableEntity, code: "no_file"},
		{name: "empty hand", body: map[string]any{"drop": "歩", "to": "55"}, status: http.StatusUnprocessableEntity, code: "hand_empty"},
		{name: "bad square", body: map[string]any{"from": "7", "to": "76"}, status: http.StatusBadRequest},
		{name: "promotion outside the zone", body: map[string]any{"from": "77", "to": "76", "promote": true}, status: http.StatusBadRequest},
		{name: "bad drop piece", body: map[string]any{"drop": "王", "to": "55"}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, http.MethodPost, url, tt.body)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%v)", status, tt.status, body)
			}
			if tt.code != "" && body["code"] != tt.code {
				t.Fatalf("code = %v, want %s", body["code"], tt.code)
			}
		})
	}

	status, body := do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/retry", nil)
	if status != http.StatusConflict {
		t.Fatalf("retry on player turn: %d %v", status, body)
	}
}

func TestOpponentFailureThenRetry(t *testing.T) {
	var calls int
	var mu sync.Mutex
	flaky := chat.SuggesterFunc(func(ctx context.Context, st shogi.State, side shogi.Side) (chat.Suggestion, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return chat.Suggestion{Raw: "うーん"}, errors.New("no move in reply")
		}
		return chat.Suggestion{Move: "3四歩", Raw: "3四歩"}, nil
	})
	_, ts := newTestServer(t, flaky)
	id := createGame(t, ts.URL)

	status, body := do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/moves", map[string]any{"notation": "7六歩"})
	if status != http.StatusOK || body["opponentError"] == nil {
		t.Fatalf("expected opponent error: %d %v", status, body)
	}
	status, body = do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/moves", map[string]any{"notation": "2六歩"})
	if status != http.StatusConflict {
		t.Fatalf("move while opponent is to move: %d %v", status, body)
	}
	status, body = do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/retry", nil)
	if status != http.StatusOK || body["opponent"] != "3四歩" {
		t.Fatalf("retry: %d %v", status, body)
	}
}

func TestBusyRejectsSecondMove(t *testing.T) {
	release := make(chan struct{})
	blocking := chat.SuggesterFunc(func(ctx context.Context, st shogi.State, side shogi.Side) (chat.Suggestion, error) {
		<-release
		return chat.Suggestion{Move: "3四歩", Raw: "3四歩"}, nil
	})
	srv, ts := newTestServer(t, blocking)
	id, g, err := srv.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := make(chan int, 1)
	go func() {
		status, _ := do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/moves", map[string]any{"notation": "7六歩"})
		done <- status
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !g.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("game never became busy")
		}
		time.Sleep(5 * time.Millisecond)
	}
	status, body := do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/moves", map[string]any{"notation": "2六歩"})
	if status != http.StatusConflict {
		t.Fatalf("busy move status %d: %v", status, body)
	}
	close(release)
	if status := <-done; status != http.StatusOK {
		t.Fatalf("first move status %d", status)
	}
}

func TestKIFAndDelete(t *testing.T) {
	_, ts := newTestServer(t, script("3四歩"))
	id := createGame(t, ts.URL)
	do(t, http.MethodPost, ts.URL+"/api/games/"+id+"/moves", map[string]any{"notation": "7六歩"})

	resp, err := http.Get(ts.URL + "/api/games/" + id + "/kif")
	if err != nil {
		t.Fatalf("kif: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(data), "   1 ７六歩(77)") || !strings.Contains(string(data), "   2 ３四歩(33)") {
		t.Fatalf("unexpected kif:\n%s", data)
	}

	status, _ := do(t, http.MethodDelete, ts.URL+"/api/games/"+id, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete status %d", status)
	}
	status, _ = do(t, http.MethodDelete, ts.URL+"/api/games/"+id, nil)
	if status != http.StatusNotFound {
		t.Fatalf("second delete status %d", status)
	}
}

func TestWebSocket(t *testing.T) {
	srv, ts := newTestServer(t, script("3四歩"))
	id, _, err := srv.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg map[string]any
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read state: %v", err)
	}
	if msg["type"] != "state" {
		t.Fatalf("first message should be state: %v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("7六歩")); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = map[string]any{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read turn: %v", err)
	}
	turn, _ := msg["turn"].(map[string]any)
	if msg["type"] != "turn" || turn["opponent"] != "3四歩" {
		t.Fatalf("unexpected turn message: %v", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("9九王")); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = map[string]any{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error: %v", err)
	}
	if msg["type"] != "error" || msg["code"] != "piece_not_found" {
		t.Fatalf("unexpected error message: %v", msg)
	}
}
