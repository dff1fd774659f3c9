package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dborella/peerline/internal/auth"
	"github.com/dborella/peerline/internal/blob"
	"github.com/dborella/peerline/internal/config"
	"github.com/dborella/peerline/internal/observability"
	"github.com/dborella/peerline/internal/presence"
	"github.com/dborella/peerline/internal/relay"
	"github.com/dborella/peerline/internal/store"
)

type Server struct {
	cfg      config.Config
	verifier auth.Verifier
	store    store.Store
	blobs    *blob.LocalStore
	registry *presence.Registry
	hub      *relay.Hub
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, verifier auth.Verifier, st store.Store, blobs *blob.LocalStore, registry *presence.Registry, hub *relay.Hub, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		verifier: verifier,
		store:    st,
		blobs:    blobs,
		registry: registry,
		hub:      hub,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin. Non-browser clients omitting Origin are allowed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/ws", s.handleWS)
	r.Get("/v1/messages", s.handleHistory)
	r.Post("/v1/uploads", s.handleUpload)
	if s.blobs != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.blobs.Dir()))))
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"online_users": s.registry.Count(),
	})
}

// handleHistory serves the conversation between the caller and one peer, in
// chronological order. This backs the durable-eventual-delivery contract: a
// recipient who was offline sees persisted messages here on next fetch.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	peerID, err := strconv.ParseInt(r.URL.Query().Get("peer"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_peer", "query parameter peer must be a user id")
		return
	}

	limit := s.cfg.HistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "query parameter limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.StoreTimeout)
	defer cancel()
	msgs, err := s.store.MessagesBetween(ctx, userID, peerID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", "could not load messages")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// handleUpload stores one multipart file blob and returns the metadata the
// client attaches to a subsequent chat_message frame.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	if s.blobs == nil {
		respondError(w, http.StatusNotImplemented, "uploads_disabled", "file storage not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	fileURL, size, err := s.blobs.Save(header.Filename, file)
	if errors.Is(err, blob.ErrTooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "upload_failed", "could not store file")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"fileUrl":  fileURL,
		"fileSize": size,
		"fileType": header.Header.Get("Content-Type"),
		"fileName": header.Filename,
	})
}

// authenticate resolves the bearer credential on a REST request, writing the
// error response itself when the credential is missing or bad.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (int64, bool) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing_credential", "bearer token required")
		return 0, false
	}
	userID, err := s.verifier.VerifyToken(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid_credential", err.Error())
		return 0, false
	}
	return userID, true
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
