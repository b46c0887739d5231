package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/toohak/toohak/internal/auth"
	"github.com/toohak/toohak/internal/config"
	"github.com/toohak/toohak/internal/logging"
	"github.com/toohak/toohak/internal/quiz"
	"github.com/toohak/toohak/internal/session"
)

// NewHTTPServer wires every route of the API service onto one mux.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, authHandlers *auth.HTTPHandlers, quizHandlers *quiz.HTTPHandlers, sessionHandlers *session.HTTPHandlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, pool, redis); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	// Auth endpoints
	mux.HandleFunc("POST /v1/auth/register", authHandlers.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandlers.Login)
	mux.HandleFunc("POST /v1/auth/logout", authHandlers.Logout)

	// Quiz authoring endpoints
	mux.HandleFunc("POST /v1/admin/quiz", quizHandlers.Create)
	mux.HandleFunc("GET /v1/admin/quiz/{quizid}", quizHandlers.Info)
	mux.HandleFunc("DELETE /v1/admin/quiz/{quizid}", quizHandlers.Trash)
	mux.HandleFunc("POST /v1/admin/quiz/{quizid}/restore", quizHandlers.Restore)
	mux.HandleFunc("POST /v1/admin/quiz/{quizid}/question", quizHandlers.AddQuestion)

	// Admin session endpoints
	mux.HandleFunc("POST /v1/admin/quiz/{quizid}/session/start", sessionHandlers.StartSession)
	mux.HandleFunc("GET /v1/admin/quiz/{quizid}/sessions", sessionHandlers.ListSessions)
	mux.HandleFunc("PUT /v1/admin/quiz/{quizid}/session/{sessionid}", sessionHandlers.UpdateSessionState)
	mux.HandleFunc("GET /v1/admin/quiz/{quizid}/session/{sessionid}", sessionHandlers.GetSessionStatus)
	mux.HandleFunc("GET /v1/admin/quiz/{quizid}/session/{sessionid}/results", sessionHandlers.GetFinalResults)
	mux.HandleFunc("GET /v1/admin/quiz/{quizid}/session/{sessionid}/results/csv", sessionHandlers.GetFinalResultsCSV)

	// Player endpoints
	mux.HandleFunc("POST /v1/player/join", sessionHandlers.JoinSession)
	mux.HandleFunc("GET /v1/player/{playerid}", sessionHandlers.PlayerStatus)
	mux.HandleFunc("GET /v1/player/{playerid}/question/{questionposition}", sessionHandlers.PlayerQuestionInfo)
	mux.HandleFunc("PUT /v1/player/{playerid}/question/{questionposition}/answer", sessionHandlers.PlayerSubmitAnswer)
	mux.HandleFunc("GET /v1/player/{playerid}/question/{questionposition}/results", sessionHandlers.PlayerQuestionResults)
	mux.HandleFunc("GET /v1/player/{playerid}/results", sessionHandlers.PlayerFinalResults)
	mux.HandleFunc("POST /v1/player/{playerid}/chat", sessionHandlers.PlayerSendChat)
	mux.HandleFunc("GET /v1/player/{playerid}/chat", sessionHandlers.PlayerViewChat)
	mux.HandleFunc("GET /v1/player/{playerid}/ws", sessionHandlers.PlayerWatch)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
