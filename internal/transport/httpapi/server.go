// Package httpapi exposes the conversation engine and the booking step over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "food-ordering-agent/internal/common/errors"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/common/metrics"
	"food-ordering-agent/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Agent runs one conversation turn.
type Agent interface {
	HandleInput(ctx context.Context, sessionKey, utterance string) (*models.Response, error)
}

// Orders books and looks up orders.
type Orders interface {
	PlaceOrder(ctx context.Context, sessionKey string, body []byte) (*models.Response, error)
	CheckOrder(ctx context.Context, orderID string) (*models.OrderStatus, error)
}

// Pinger is a backend checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	CookieName     string
	CookieMaxAge   int
	AllowedOrigin  string
	RequestTimeout time.Duration
}

type Server struct {
	config Config
	agent  Agent
	orders Orders
	checks map[string]Pinger
	logger logger.Logger
}

type queryRequest struct {
	Input string `json:"input"`
}

type errorResponse struct {
	Status   models.ResponseStatus `json:"status"`
	Response string                `json:"response"`
	Code     string                `json:"code,omitempty"`
	Details  string                `json:"details,omitempty"`
}

func NewServer(cfg Config, agent Agent, orders Orders, checks map[string]Pinger, log logger.Logger) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "user_id"
	}
	return &Server{
		config: cfg,
		agent:  agent,
		orders: orders,
		checks: checks,
		logger: logger.Component(log, "http"),
	}
}

// Handler returns the routed and CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /query", s.instrument("/query", s.handleQuery))
	mux.Handle("POST /order", s.instrument("/order", s.handlePlaceOrder))
	mux.Handle("GET /order/{id}", s.instrument("/order/{id}", s.handleCheckOrder))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.cors(mux)
}

// handleQuery issues the session cookie before validating the body, so even a rejected
// first request leaves the client with a session. Whitespace-only input is a valid turn.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sessionKey := s.sessionCookie(w, r)

	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewBusinessRuleError("Invalid request body", err.Error()))
		return
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, apperrors.NewBusinessRuleError("Input is required", "input is empty"))
		return
	}

	resp, err := s.agent.HandleInput(r.Context(), sessionKey, req.Input)
	if err != nil {
		status := apperrors.HTTPStatus(apperrors.CodeOf(err))
		if resp == nil {
			s.writeError(w, status, err)
			return
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(s.config.CookieName)
	if err != nil || cookie.Value == "" {
		s.writeError(w, http.StatusBadRequest, apperrors.NewBusinessRuleError("Missing session", s.config.CookieName+" cookie is required"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.NewOrderValidationFailedError(err.Error()))
		return
	}

	resp, err := s.orders.PlaceOrder(r.Context(), cookie.Value, body)
	if err != nil {
		s.writeError(w, apperrors.HTTPStatus(apperrors.CodeOf(err)), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckOrder(w http.ResponseWriter, r *http.Request) {
	status, err := s.orders.CheckOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, apperrors.HTTPStatus(apperrors.CodeOf(err)), err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"checks": failed})
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not ready",
			"checks": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// sessionCookie returns the caller's session key, issuing a new one when absent, and
// refreshes the cookie's lifetime either way.
func (s *Server) sessionCookie(w http.ResponseWriter, r *http.Request) string {
	key := ""
	if c, err := r.Cookie(s.config.CookieName); err == nil {
		key = c.Value
	}
	if key == "" {
		key = uuid.NewString()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    key,
		Path:     "/",
		MaxAge:   s.config.CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if s.config.RequestTimeout > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
			defer cancel()
			r = r.WithContext(ctx)
		}
		next(w, r)
		metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.config.AllowedOrigin != "" && origin != "" &&
			(s.config.AllowedOrigin == "*" || s.config.AllowedOrigin == origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	body := errorResponse{Status: models.StatusError, Response: err.Error()}
	if stdErr, ok := apperrors.AsStandard(err); ok {
		body.Response = stdErr.Message
		body.Code = string(stdErr.Code)
		body.Details = stdErr.Details
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"status": status,
			"code":   body.Code,
			"error":  err.Error(),
		})
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
