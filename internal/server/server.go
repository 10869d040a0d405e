package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bmarinov/storagegrid-provisioner/internal/provision"
	"github.com/bmarinov/storagegrid-provisioner/internal/stats"
)

// Server exposes the provisioning service over HTTP.
type Server struct {
	service    provision.Service
	s3Endpoint string
	logger     *slog.Logger
}

func New(service provision.Service, s3Endpoint string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service:    service,
		s3Endpoint: s3Endpoint,
		logger:     logger,
	}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(s.observeRequests)
	v1.HandleFunc("/buckets/{bucketname}/paths/{path}/userpolicies", s.provisionUserPolicies).
		Methods(http.MethodPost)
	v1.HandleFunc("/authorize", s.authorize).Methods(http.MethodPost)
	v1.HandleFunc("/s3Url", s.s3URL).Methods(http.MethodGet)

	return router
}

func (s *Server) provisionUserPolicies(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucketName := vars["bucketname"]
	path := vars["path"]

	var payload provision.ProvisionUserPoliciesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := validatePayload(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	response, err := s.service.ProvisionUserPolicies(r.Context(), bucketName, path, payload)
	if err != nil {
		stats.ProvisionCounter.WithLabelValues("error").Inc()
		s.logger.Error("provisioning failed", "bucket", bucketName, "path", path, "err", err)
		s.writeError(w, http.StatusInternalServerError, err.Error(), errors.Unwrap(err))
		return
	}
	stats.ProvisionCounter.WithLabelValues("success").Inc()

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	var payload provision.AuthorizationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	token, err := s.service.Authorize(r.Context(), payload)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), errors.Unwrap(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(token))
}

func (s *Server) s3URL(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.s3Endpoint))
}

// validatePayload checks required fields and rewrites every access grant to
// its canonical uppercase form. Naming and policy construction compare
// against the canonical constants, so grants must never pass through in
// caller casing.
func validatePayload(payload *provision.ProvisionUserPoliciesPayload) error {
	if payload.Username == "" {
		return errors.New("username is required")
	}
	account := payload.TenantAccount
	if account.AccountID == "" || account.Username == "" || account.Password == "" {
		return errors.New("tenantAccount requires accountId, username and password")
	}
	for i, a := range payload.Access {
		parsed, err := provision.ParseAccess(string(a))
		if err != nil {
			return err
		}
		payload.Access[i] = parsed
	}
	return nil
}

// GenericErrorResponse is the JSON error body for failed requests.
type GenericErrorResponse struct {
	ErrorMessage string `json:"errorMessage"`
	Cause        string `json:"cause,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, cause error) {
	response := GenericErrorResponse{ErrorMessage: message}
	if cause != nil {
		response.Cause = cause.Error()
	}
	s.writeJSON(w, status, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("writing response", "err", err)
	}
}

// observeRequests logs every request and records route metrics.
func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		elapsed := time.Since(start)
		stats.RequestCounter.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		stats.RequestHistogram.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Info("request",
			"method", r.Method, "path", r.URL.Path, "status", sw.status, "duration", elapsed)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
