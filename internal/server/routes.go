package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"briscola-env/internal/database"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ResultStore is the read side of the results database.
type ResultStore interface {
	GetAll(ctx context.Context) ([]database.GameResult, error)
	GetByID(ctx context.Context, id string) (database.GameResult, error)
	GetByPlayer(ctx context.Context, name string) ([]database.GameResult, error)
	Ping(ctx context.Context) error
}

// NewRouter mounts the websocket endpoint, the results API and, when
// staticDir is set, the web client.
func NewRouter(hub *Hub, db ResultStore, staticDir string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	if hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ServeWs(hub, w, r)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			HealthHandler(db, w, r)
		})
		r.Get("/results", func(w http.ResponseWriter, r *http.Request) {
			GetResultsHandler(db, w, r)
		})
		r.Get("/results/{id}", func(w http.ResponseWriter, r *http.Request) {
			GetResultHandler(db, w, r)
		})
		r.Get("/results/player/{name}", func(w http.ResponseWriter, r *http.Request) {
			GetResultsByPlayerHandler(db, w, r)
		})
	})

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func HealthHandler(db ResultStore, w http.ResponseWriter, r *http.Request) {
	if db == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "database": "disabled"})
		return
	}
	if err := db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"ok": false, "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "database": "up"})
}

func GetResultsHandler(db ResultStore, w http.ResponseWriter, r *http.Request) {
	if db == nil {
		http.Error(w, "Results are not stored", http.StatusServiceUnavailable)
		return
	}
	results, err := db.GetAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []database.GameResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func GetResultHandler(db ResultStore, w http.ResponseWriter, r *http.Request) {
	if db == nil {
		http.Error(w, "Results are not stored", http.StatusServiceUnavailable)
		return
	}
	result, err := db.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Result not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch result", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func GetResultsByPlayerHandler(db ResultStore, w http.ResponseWriter, r *http.Request) {
	if db == nil {
		http.Error(w, "Results are not stored", http.StatusServiceUnavailable)
		return
	}
	player := chi.URLParam(r, "name")
	if player == "" {
		http.Error(w, "Player name is required", http.StatusBadRequest)
		return
	}

	results, err := db.GetByPlayer(r.Context(), player)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "No results found for player", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
