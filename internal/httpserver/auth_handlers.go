package httpserver

import (
	"encoding/json"
	"net/http"

	"whisperlink/internal/domain"
	"whisperlink/internal/service"
)

type signupRequest struct {
	Username              string `json:"username"`
	Password              string `json:"password"`
	DisplayName           string `json:"display_name"`
	AccountType           string `json:"account_type"`
	SecretPartnerUsername string `json:"secret_partner_username"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func handleSignup(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
			return
		}
		kind := domain.AccountKind(req.AccountType)
		if req.AccountType == "" {
			kind = domain.AccountPublic
		}

		resp, err := authSvc.Signup(r.Context(), service.SignupInput{
			Username:              req.Username,
			Password:              req.Password,
			DisplayName:           req.DisplayName,
			AccountKind:           kind,
			SecretPartnerUsername: req.SecretPartnerUsername,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func handleLogin(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
			return
		}

		resp, err := authSvc.Login(r.Context(), service.LoginInput{
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleMe(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "unauthorized"})
			return
		}
		full, err := userSvc.GetByID(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, full)
	}
}
