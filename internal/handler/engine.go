package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/linhozo/UnimelbS2-Pacman/internal/auth"
	"github.com/linhozo/UnimelbS2-Pacman/internal/bot"
	"github.com/linhozo/UnimelbS2-Pacman/internal/middleware"
	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

const (
	writeWait          = 10 * time.Second
	defaultTurnTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // agents are authenticated by token, not origin
	},
}

// EngineConfig configures the games hosted for remote agents.
type EngineConfig struct {
	Layout      *capture.Layout
	LayoutName  string
	TimeLeft    int
	Opponents   string // policy kind for every seat not played remotely
	Seed        int64
	TurnTimeout time.Duration
}

// EngineHandler hosts one game per websocket connection. The remote agent
// plays the seat named in its token; local policies play the others.
type EngineHandler struct {
	hub *Hub
	cfg EngineConfig
}

// NewEngineHandler creates an EngineHandler. cfg.Layout must be set.
func NewEngineHandler(hub *Hub, cfg EngineConfig) *EngineHandler {
	if cfg.TurnTimeout == 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	return &EngineHandler{hub: hub, cfg: cfg}
}

// Routes returns the engine's HTTP routes wrapped in request logging.
func (h *EngineHandler) Routes(jwtMgr *auth.JWTManager) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ws/play", auth.Middleware(jwtMgr)(http.HandlerFunc(h.ServeWS)))
	mux.HandleFunc("GET /healthz", h.Health)
	return middleware.Chain(mux, middleware.Logger)
}

// Health handles GET /healthz.
func (h *EngineHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.hub.ConnectionCount(),
		"agents":   h.hub.Agents(),
	})
}

// ServeWS handles GET /ws/play: upgrades to a websocket and plays one game.
func (h *EngineHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing agent claims")
		return
	}
	n := h.cfg.Layout.NumAgents()
	if claims.Seat < 0 || claims.Seat >= n {
		writeError(w, http.StatusBadRequest, "seat out of range")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s := &Session{conn: conn, agent: claims.Agent, seat: claims.Seat, turnTimeout: h.cfg.TurnTimeout}
	h.hub.Register(s)
	defer h.hub.Unregister(s)
	log.Info().Str("agent", s.agent).Int("seat", s.seat).Int("total", h.hub.ConnectionCount()).Msg("Remote agent connected")

	red, blue := h.roster(s, n)
	result, err := bot.RunMatch(r.Context(), bot.MatchConfig{
		Layout:     h.cfg.Layout,
		LayoutName: h.cfg.LayoutName,
		TimeLeft:   h.cfg.TimeLeft,
		Red:        red,
		Blue:       blue,
	})
	if err != nil {
		log.Warn().Err(err).Str("agent", s.agent).Msg("Hosted game aborted")
		s.sendError(err)
		return
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	log.Info().
		Str("agent", s.agent).
		Str("episode", result.EpisodeID).
		Int("score", result.Score).
		Int("turns", result.Turns).
		Msg("Hosted game finished")
}

// roster seats s and fills the remaining seats with local policies.
func (h *EngineHandler) roster(s *Session, n int) (red, blue []bot.Policy) {
	params := bot.DefaultTraining(0)
	for i := 0; i < n; i++ {
		var p bot.Policy = s
		if i != s.seat {
			var seed int64
			if h.cfg.Seed != 0 {
				seed = h.cfg.Seed + int64(i)
			}
			p = bot.PolicyForKind(h.cfg.Opponents, i, params, seed)
		}
		if capture.TeamOf(i) == capture.Red {
			red = append(red, p)
		} else {
			blue = append(blue, p)
		}
	}
	return red, blue
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
