package httpserver

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"taskhub/internal/service"
	"taskhub/internal/ws"
)

func handleMessageHistory(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userA := chi.URLParam(r, "userA")
		userB := chi.URLParam(r, "userB")

		// limit is optional; a non-numeric value is rejected rather than
		// silently falling back to the default.
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a number"})
				return
			}
			limit = n
		}

		msgs, err := msgSvc.History(r.Context(), userA, userB, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

func handleConversations(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := msgSvc.Conversations(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

func handleUnread(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := msgSvc.Unread(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

type markReadRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

func handleMarkRead(msgSvc *service.MessageService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.SenderID == "" || req.ReceiverID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "senderId and receiverId are required"})
			return
		}

		count, err := msgSvc.MarkRead(r.Context(), req.SenderID, req.ReceiverID)
		if err != nil {
			writeError(w, err)
			return
		}

		// Let the sender's UI reflect the read state without re-polling.
		if err := hub.EmitToRoom(r.Context(), req.SenderID, ws.EventMessagesRead, ws.MessagesReadPayload{
			ReadBy: req.ReceiverID,
			Count:  count,
		}); err != nil {
			log.Printf("mark-read: emit messagesRead: %v", err)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"markedCount": count,
		})
	}
}
