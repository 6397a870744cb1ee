package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"i4.energy/across/smsdeliver/delivery"
	"i4.energy/across/smsdeliver/sms"
)

// Server handles incoming HTTP requests for sending messages through the
// configured delivery engine
type Server struct {
	Logger *slog.Logger
	Engine *delivery.Engine
	// Metrics, when set, is served on GET /metrics
	Metrics http.Handler
	// Token, when set, is required as "Authorization: Bearer <token>" on
	// /sms and /balance
	Token string
	// Limiter, when set, bounds the rate of POST /sms
	Limiter *rate.Limiter
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	log := s.Logger.With("request_id", id)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /sms", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(w, r, log) {
			return
		}
		if s.Limiter != nil && !s.Limiter.Allow() {
			log.Warn("Rate limit exceeded", "remote", r.RemoteAddr)
			s.sendError(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		s.handleSMS(w, r, log)
	})
	mux.HandleFunc("GET /balance", func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(w, r, log) {
			return
		}
		s.handleBalance(w, r, log)
	})
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
	mux.ServeHTTP(w, r)
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request, log *slog.Logger) bool {
	if s.Token == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.Token {
		log.Warn("Unauthorized request", "path", r.URL.Path, "remote", r.RemoteAddr)
		s.sendError(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

type balanceResponse struct {
	Balance sms.Balance `json:"balance"`
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) sendBalance(w http.ResponseWriter, balance sms.Balance) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(balanceResponse{Balance: balance})
}

// statusCode maps a delivery error to the HTTP status returned to the caller
func statusCode(err error) int {
	switch sms.KindOf(err) {
	case sms.KindInput:
		return http.StatusBadRequest
	case sms.KindAuth, sms.KindResponse:
		return http.StatusBadGateway
	case sms.KindCommunication:
		return http.StatusServiceUnavailable
	case sms.KindSend:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// handleSMS processes incoming HTTP POST requests to send SMS messages
func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	type SMSRequest struct {
		To      string `json:"to"`
		Message string `json:"message"`
		// Silent sends a message the handset does not display
		Silent bool `json:"silent"`
		// Long splits the message into numbered parts when needed
		Long bool `json:"long"`
	}

	var req SMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.To == "" || req.Message == "" {
		s.sendError(w, "both 'to' and 'message' fields are required", http.StatusBadRequest)
		return
	}
	if req.Silent && req.Long {
		s.sendError(w, "'silent' and 'long' cannot be combined", http.StatusBadRequest)
		return
	}

	send := s.Engine.Send
	switch {
	case req.Silent:
		send = s.Engine.SendSilent
	case req.Long:
		send = s.Engine.SendLong
	}

	balance, err := send(r.Context(), req.To, req.Message)
	if err != nil {
		log.Error("Failed to send SMS", "error", err, "to", req.To)
		s.sendError(w, err.Error(), statusCode(err))
		return
	}

	log.Info("SMS sent successfully", "to", req.To, "message_length", len(req.Message), "balance", balance)
	s.sendBalance(w, balance)
}

// handleBalance reports the number of messages left
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, log *slog.Logger) {
	balance, err := s.Engine.Balance(r.Context())
	if err != nil {
		log.Error("Failed to read balance", "error", err)
		s.sendError(w, err.Error(), statusCode(err))
		return
	}
	s.sendBalance(w, balance)
}
