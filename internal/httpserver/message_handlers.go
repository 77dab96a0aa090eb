package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"whisperlink/internal/domain"
	"whisperlink/internal/service"
)

type sendMessageRequest struct {
	ReceiverID    string   `json:"receiver_id"`
	Content       string   `json:"content"`
	MessageType   string   `json:"message_type"`
	FileURL       *string  `json:"file_url"`
	FileName      *string  `json:"file_name"`
	FileSize      *int64   `json:"file_size"`
	VoiceDuration *float64 `json:"voice_duration"`
}

func handleSendMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
			return
		}

		msg, err := msgSvc.Send(r.Context(), user.ID, service.SendInput{
			ReceiverID:    req.ReceiverID,
			Content:       req.Content,
			Kind:          domain.MessageKind(req.MessageType),
			FileURL:       req.FileURL,
			FileName:      req.FileName,
			FileSize:      req.FileSize,
			VoiceDuration: req.VoiceDuration,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func handleHistory(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		otherID := chi.URLParam(r, "userID")
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		msgs, err := msgSvc.History(r.Context(), user.ID, otherID, skip, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleMarkRead(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		otherID := chi.URLParam(r, "userID")

		n, err := msgSvc.MarkConversationRead(r.Context(), user.ID, otherID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"marked_read": n})
	}
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

func handleReaction(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		messageID := chi.URLParam(r, "messageID")

		var req reactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
			return
		}

		msg, err := msgSvc.React(r.Context(), user.ID, messageID, req.Emoji)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}
