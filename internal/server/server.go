// Package server exposes the core services over a JSON HTTP API.
//
// The handlers here are thin: they parse payloads, call one service
// operation, and map the service's error taxonomy to a status code. All
// business rules live in internal/service.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/middleware"
	"github.com/mmynk/splitbill/internal/service"
	"github.com/mmynk/splitbill/internal/storage"
)

// Server wires the service layer to HTTP routes.
type Server struct {
	auth        *service.AuthService
	bills       *service.BillService
	settlements *service.SettlementService
	jwtManager  *auth.JWTManager
}

// New creates a Server over the given services.
func New(authSvc *service.AuthService, bills *service.BillService, settlements *service.SettlementService, jwtManager *auth.JWTManager) *Server {
	return &Server{
		auth:        authSvc,
		bills:       bills,
		settlements: settlements,
		jwtManager:  jwtManager,
	}
}

// Handler builds the route table with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	authed := middleware.RequireAuth(s.jwtManager)
	mux.Handle("GET /api/auth/profile", authed(http.HandlerFunc(s.handleProfile)))
	mux.Handle("POST /api/auth/balance", authed(http.HandlerFunc(s.handleAddBalance)))

	mux.Handle("POST /api/bills", authed(http.HandlerFunc(s.handleCreateBill)))
	mux.Handle("GET /api/bills", authed(http.HandlerFunc(s.handleListBills)))
	mux.Handle("GET /api/bills/{id}", authed(http.HandlerFunc(s.handleGetBill)))
	mux.Handle("POST /api/bills/{id}/pay", authed(http.HandlerFunc(s.handlePayBill)))
	mux.Handle("POST /api/bills/{id}/participants/{index}/pay", authed(http.HandlerFunc(s.handleMarkExternalPaid)))

	mux.Handle("GET /metrics", metrics.Handler())

	return middleware.Logging(middleware.CORS(metrics.Instrument(mux)))
}

// decode parses a JSON request body into v.
func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeJSON serializes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`

	// AmountDue and CurrentBalance are set only for insufficient-balance
	// rejections, so clients can display both figures.
	AmountDue      *float64 `json:"amount_due,omitempty"`
	CurrentBalance *float64 `json:"current_balance,omitempty"`
}

// writeError maps a service error to an HTTP status and JSON body.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var insufficient *service.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		resp.AmountDue = &insufficient.AmountDue
		resp.CurrentBalance = &insufficient.Balance
	}

	writeJSON(w, statusFor(err), resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrInvalidIndex),
		errors.Is(err, service.ErrNotExternal),
		isValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotAParticipant):
		return http.StatusForbidden
	case errors.Is(err, service.ErrBillNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUsernameExists),
		errors.Is(err, storage.ErrTxAborted):
		return http.StatusConflict
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, calculator.ErrInvalidSplitMethod) ||
		errors.Is(err, calculator.ErrEmptyParticipants) ||
		errors.Is(err, calculator.ErrNonPositiveItem) ||
		errors.Is(err, calculator.ErrSplitQuantityMismatch) ||
		errors.Is(err, calculator.ErrUnassignedParticipant)
}
