package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/basta-backend/internal"
	"github.com/scythe504/basta-backend/internal/utils"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/rooms", s.CreateRoomHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rooms/{roomId}", s.GetRoomHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms-available", s.GetRoomToJoin).Methods(http.MethodGet)

	r.HandleFunc("/ws/{roomId}", s.WebSocketHandler)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
	if s.games != nil {
		r.HandleFunc("/games", s.ListGamesHandler).Methods(http.MethodGet)
	}

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Websocket upgrades skip the preflight handling
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()
	writeResponse(w, http.StatusOK, start, map[string]any{
		"status": "ok",
		"rooms":  s.rooms.Count(),
	})
}

func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()

	actor, err := s.rooms.CreateRoom()
	if err != nil {
		log.Error().Err(err).Msg("[CreateRoomHandler] could not create room")
		writeResponse(w, http.StatusInternalServerError, start, "Could not create room")
		return
	}

	log.Info().Str("room", actor.ID()).Msg("[CreateRoomHandler] room created")
	writeResponse(w, http.StatusCreated, start, actor.Info())
}

func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()

	code, ok := utils.NormalizeRoomCode(mux.Vars(r)["roomId"])
	if !ok {
		writeError(w, http.StatusNotFound, start, internal.ErrRoomNotFound)
		return
	}
	actor, ok := s.rooms.Get(code)
	if !ok {
		writeError(w, http.StatusNotFound, start, internal.ErrRoomNotFound)
		return
	}
	writeResponse(w, http.StatusOK, start, actor.Info())
}

func (s *Server) GetRoomToJoin(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()

	roomId := s.rooms.GetJoinableRoom()
	if roomId == "" {
		writeResponse(w, http.StatusNotFound, start, "No joinable rooms available")
		return
	}
	writeResponse(w, http.StatusOK, start, roomId)
}

func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()

	code, ok := utils.NormalizeRoomCode(mux.Vars(r)["roomId"])
	if !ok {
		writeError(w, http.StatusNotFound, start, internal.ErrRoomNotFound)
		return
	}
	s.sockets.HandleWebSocket(w, r, code)
}

func (s *Server) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now().UnixMilli()

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeResponse(w, http.StatusBadRequest, start, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	games, err := s.games.ListGames(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("[ListGamesHandler] could not list games")
		writeResponse(w, http.StatusInternalServerError, start, "Could not list games")
		return
	}
	writeResponse(w, http.StatusOK, start, games)
}

func writeError(w http.ResponseWriter, status int, start int64, gameErr *internal.GameError) {
	writeResponse(w, status, start, internal.ErrorData{Message: gameErr.Message, Code: gameErr.Code})
}

func writeResponse(w http.ResponseWriter, status int, start int64, data any) {
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: start,
		Data:          data,
	}
	end := time.Now().UnixMilli()
	resp.RespEndTime = end
	resp.NetRespTime = end - start

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("[writeResponse] error encoding response")
	}
}
