package server

import (
	"net/http"

	"github.com/mmynk/splitbill/internal/middleware"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Balance  float64 `json:"balance"`
	Token    string  `json:"access_token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		UserID:   session.UserID,
		Username: session.Username,
		Email:    session.Email,
		Balance:  session.Balance,
		Token:    session.Token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:   session.UserID,
		Username: session.Username,
		Email:    session.Email,
		Balance:  session.Balance,
		Token:    session.Token,
	})
}

type profileResponse struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Balance  float64 `json:"balance"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.auth.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		UserID:   profile.UserID,
		Username: profile.Username,
		Email:    profile.Email,
		Balance:  profile.Balance,
	})
}

type addBalanceRequest struct {
	Amount float64 `json:"amount"`
}

type addBalanceResponse struct {
	NewBalance float64 `json:"new_balance"`
}

func (s *Server) handleAddBalance(w http.ResponseWriter, r *http.Request) {
	var req addBalanceRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	balance, err := s.auth.AddBalance(r.Context(), middleware.GetUserID(r.Context()), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, addBalanceResponse{NewBalance: balance})
}
