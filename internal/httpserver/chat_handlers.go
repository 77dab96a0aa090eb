package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"whisperlink/internal/service"
)

func handleListChats(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		chats, err := chatSvc.ListForUser(r.Context(), user.ID, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chats)
	}
}

func handleEnsureChat(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		otherID := chi.URLParam(r, "userID")

		chat, err := chatSvc.EnsureWith(r.Context(), user.ID, otherID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	}
}

type nicknameRequest struct {
	Nickname string `json:"nickname"`
}

func handleSetNickname(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		chatID := chi.URLParam(r, "chatID")

		var req nicknameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
			return
		}
		if err := chatSvc.SetNickname(r.Context(), chatID, user.ID, req.Nickname); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"nickname": req.Nickname})
	}
}

type wallpaperRequest struct {
	Wallpaper string `json:"wallpaper"`
}

func handleSetWallpaper(chatSvc *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		chatID := chi.URLParam(r, "chatID")

		var req wallpaperRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
			return
		}
		if err := chatSvc.SetWallpaper(r.Context(), chatID, user.ID, req.Wallpaper); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"wallpaper": req.Wallpaper})
	}
}
