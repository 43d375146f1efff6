package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/battleboard/game/controller"
	"github.com/wricardo/mcp-training/battleboard/game/engine"
	"github.com/wricardo/mcp-training/battleboard/game/service"
	"github.com/wricardo/mcp-training/battleboard/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	log     *logrus.Entry
}

// NewServer creates a new API server. hub may be nil when no push transport
// is wanted.
func NewServer(gameService service.GameService, hub *websocket.Hub, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		log:     log.WithField("component", "api"),
	}

	s.setupRoutes()
	return s
}

// Router exposes the underlying router so callers can mount more handlers
func (s *Server) Router() *mux.Router {
	return s.router
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Flat routes: a subrouter loses the 405 for a wrong method
	r := s.router

	// Reads
	r.HandleFunc("/api/state", s.handleGetState).Methods("GET")
	r.HandleFunc("/api/board", s.handleGetBoard).Methods("GET")
	r.HandleFunc("/api/presets", s.handleListPresets).Methods("GET")

	// Game lifecycle
	r.HandleFunc("/api/game/start", s.handleStartGame).Methods("POST")
	r.HandleFunc("/api/game/reset", s.handleReset).Methods("POST")

	// Turn actions
	r.HandleFunc("/api/game/roll", s.handleRollDice).Methods("POST")
	r.HandleFunc("/api/game/movement-die", s.handleRollMovementDie).Methods("POST")

	// Battle actions
	r.HandleFunc("/api/game/battle/roll", s.handleRollBattleDie).Methods("POST")
	r.HandleFunc("/api/game/battle/resolve", s.handleResolveBattleRound).Methods("POST")
	r.HandleFunc("/api/game/battle/complete", s.handleCompleteBattle).Methods("POST")
	r.HandleFunc("/api/game/battle/close", s.handleCloseBattle).Methods("POST")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service and engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidPhaseAction),
		errors.Is(err, engine.ErrMoveInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, engine.ErrNotEnoughPlayers),
		errors.Is(err, engine.ErrTooManyPlayers),
		errors.Is(err, engine.ErrDuplicatePlayer),
		errors.Is(err, engine.ErrUnknownPlayer),
		errors.Is(err, engine.ErrInvalidDie),
		errors.Is(err, engine.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, controller.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondAction writes an action result. Rejected actions keep the current
// game state in the body next to the error.
func (s *Server) respondAction(w http.ResponseWriter, r *http.Request, result *service.ActionResult, err error) {
	if err == nil {
		respondJSON(w, http.StatusOK, result)
		return
	}

	status := statusFor(err)
	entry := s.log.WithFields(logrus.Fields{
		"path":   r.URL.Path,
		"status": status,
	}).WithError(err)
	if status == http.StatusInternalServerError {
		entry.Error("Action failed")
	} else {
		entry.Debug("Action rejected")
	}

	body := map[string]interface{}{"error": err.Error()}
	if result != nil && result.GameState != nil {
		body["game_state"] = result.GameState
	}
	respondJSON(w, status, body)
}

// decodeBody reads an optional JSON body into v
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(service.ErrInvalidRequest, err)
	}
	return nil
}

// Read Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.service.GetBoard(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, board)
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"presets": presets,
		"count":   len(presets),
	})
}

// Lifecycle Handlers

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req service.StartGameRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.StartGame(r.Context(), req)
	s.respondAction(w, r, result, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ResetGame(r.Context())
	s.respondAction(w, r, result, err)
}

// Turn Handlers

func (s *Server) handleRollDice(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RollDice(r.Context())
	s.respondAction(w, r, result, err)
}

func (s *Server) handleRollMovementDie(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RollMovementDie(r.Context())
	s.respondAction(w, r, result, err)
}

// Battle Handlers

func (s *Server) handleRollBattleDie(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.RollBattleDie(r.Context(), engine.Role(req.Role))
	s.respondAction(w, r, result, err)
}

func (s *Server) handleResolveBattleRound(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ResolveBattleRound(r.Context())
	s.respondAction(w, r, result, err)
}

func (s *Server) handleCompleteBattle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WinnerID string `json:"winner_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.CompleteBattle(r.Context(), req.WinnerID)
	s.respondAction(w, r, result, err)
}

func (s *Server) handleCloseBattle(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.CloseBattle(r.Context())
	s.respondAction(w, r, result, err)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}
