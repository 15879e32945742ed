package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kirillm/coinbase-dca/internal/domain"
	"github.com/kirillm/coinbase-dca/internal/strategy"
	"github.com/kirillm/coinbase-dca/pkg/utils"
)

// Server exposes the DCA strategy to external schedulers over HTTP. It is a
// thin adapter; the strategy stays a plain callable.
type Server struct {
	logger      *utils.Logger
	dcaStrategy *strategy.DCAStrategy
	port        int
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type BuyRequest struct {
	QuoteAmount float64 `json:"quote_amount"`
}

func NewServer(logger *utils.Logger, dcaStrategy *strategy.DCAStrategy, port int) *Server {
	return &Server{
		logger:      logger,
		dcaStrategy: dcaStrategy,
		port:        port,
	}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/buy", s.handleBuy)

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("Starting HTTP server on %s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSON(w, http.StatusMethodNotAllowed, Response{Success: false, Error: "method not allowed"})
		return
	}

	status, err := s.dcaStrategy.Status(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: status})
}

// handleBuy triggers one DCA execution. An external cron hitting this
// endpoint gets the same single-shot semantics as the built-in scheduler.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSON(w, http.StatusMethodNotAllowed, Response{Success: false, Error: "method not allowed"})
		return
	}

	var req BuyRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
			return
		}
	}

	if err := s.dcaStrategy.ExecuteManual(r.Context(), req.QuoteAmount); err != nil {
		s.writeJSON(w, s.errorStatus(err), Response{Success: false, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: "order placed"})
}

func (s *Server) errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnsupportedPair),
		errors.Is(err, domain.ErrSizeOutOfBounds),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}
