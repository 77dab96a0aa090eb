package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"whisperlink/internal/domain"
	"whisperlink/internal/service"
)

type updateProfileRequest struct {
	DisplayName    *string `json:"display_name"`
	ProfilePicture *string `json:"profile_picture"`
	Theme          *string `json:"theme"`
}

func handleUpdateProfile(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
			return
		}

		updated, err := userSvc.UpdateProfile(r.Context(), user.ID, domain.ProfileUpdate{
			DisplayName:    req.DisplayName,
			ProfilePicture: req.ProfilePicture,
			Theme:          req.Theme,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func handleSearchUsers(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		query := r.URL.Query().Get("q")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		results, err := userSvc.Search(r.Context(), user.ID, query, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
