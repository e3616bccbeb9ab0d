// Package web serves chat games over HTTP and WebSocket.
package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"shogichat/pkg/chat"
	"shogichat/pkg/shogi"
)

// GameFactory builds the game registered under id.
type GameFactory func(id string) (*chat.Game, error)

type Server struct {
	handler  http.Handler
	upgrader websocket.Upgrader
	newGame  GameFactory
	log      zerolog.Logger

	mu    sync.RWMutex
	games map[string]*chat.Game
}

// NewServer wires the routes. Access lines go to accessLog; a nil accessLog
// disables them.
func NewServer(newGame GameFactory, log zerolog.Logger, accessLog io.Writer) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		newGame: newGame,
		log:     log.With().Str("component", "web").Logger(),
		games:   map[string]*chat.Game{},
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/games", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/games", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/games/{id}/moves", s.handleMove).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/retry", s.handleRetry).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/kif", s.handleKIF).Methods(http.MethodGet)
	router.HandleFunc("/ws/{id}", s.handleSocket)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "not found"})
	})

	var h http.Handler = router
	h = handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{s.log}))(h)
	if accessLog != nil {
		h = handlers.LoggingHandler(accessLog, h)
	}
	s.handler = h
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Create registers a new game and returns its id.
func (s *Server) Create() (string, *chat.Game, error) {
	id, err := newID()
	if err != nil {
		return "", nil, err
	}
	g, err := s.newGame(id)
	if err != nil {
		return "", nil, err
	}
	s.mu.Lock()
	s.games[id] = g
	s.mu.Unlock()
	s.log.Info().Str("game", id).Msg("game created")
	return id, g, nil
}

func (s *Server) game(id string) (*chat.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	return g, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, map[string][]string{"games": ids})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, g, err := s.Create()
	if err != nil {
		s.log.Error().Err(err).Msg("create game")
		writeJSON(w, http.StatusInternalServerError, errorPayload{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, newGamePayload(id, g))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, ok := s.lookup(w, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newGamePayload(id, g))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "game not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, ok := s.lookup(w, id)
	if !ok {
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid json"})
		return
	}
	notation, err := req.notation(g.State())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	turn, err := g.Move(r.Context(), notation)
	if err != nil {
		status, payload := errorStatus(err)
		writeJSON(w, status, payload)
		return
	}
	writeJSON(w, http.StatusOK, newTurnPayload(id, g, turn))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, ok := s.lookup(w, id)
	if !ok {
		return
	}
	turn, err := g.Retry(r.Context())
	if err != nil {
		status, payload := errorStatus(err)
		writeJSON(w, status, payload)
		return
	}
	writeJSON(w, http.StatusOK, newTurnPayload(id, g, turn))
}

func (s *Server) handleKIF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, ok := s.lookup(w, id)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.kif"`)
	_, _ = io.WriteString(w, shogi.FormatKIF(g.State()))
}

type socketMessage struct {
	Type  string       `json:"type"`
	Game  *gamePayload `json:"game,omitempty"`
	Turn  *turnPayload `json:"turn,omitempty"`
	Error string       `json:"error,omitempty"`
	Code  string       `json:"code,omitempty"`
}

// handleSocket sends the game once on connect, then treats each text frame
// as a move in notation, or as "retry".
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, ok := s.lookup(w, id)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("game", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	log := s.log.With().Str("game", id).Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("websocket connected")

	state := newGamePayload(id, g)
	if err := conn.WriteJSON(socketMessage{Type: "state", Game: &state}); err != nil {
		return
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}
		text, err := chat.DecodeInput(data)
		if err != nil {
			if conn.WriteJSON(socketMessage{Type: "error", Error: err.Error()}) != nil {
				return
			}
			continue
		}
		var turn chat.Turn
		if strings.EqualFold(text, "retry") {
			turn, err = g.Retry(r.Context())
		} else {
			turn, err = g.Move(r.Context(), text)
		}
		msg := socketMessage{Type: "turn"}
		if err != nil {
			_, payload := errorStatus(err)
			msg = socketMessage{Type: "error", Error: payload.Error, Code: payload.Code}
		} else {
			tp := newTurnPayload(id, g, turn)
			msg.Turn = &tp
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Warn().Err(err).Msg("websocket write")
			return
		}
	}
}

func (s *Server) lookup(w http.ResponseWriter, id string) (*chat.Game, bool) {
	g, ok := s.game(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "game not found"})
	}
	return g, ok
}

func errorStatus(err error) (int, errorPayload) {
	var moveErr *shogi.MoveError
	switch {
	case errors.As(err, &moveErr):
		return http.StatusUnprocessableEntity, errorPayload{Error: err.Error(), Code: moveErr.Code.String()}
	case errors.Is(err, chat.ErrBusy), errors.Is(err, chat.ErrGameOver),
		errors.Is(err, chat.ErrNotYourTurn), errors.Is(err, chat.ErrPlayerTurn):
		return http.StatusConflict, errorPayload{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorPayload{Error: err.Error()}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func newID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

type recoveryLogger struct {
	log zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error().Interface("panic", v).Msg("handler panic")
}
