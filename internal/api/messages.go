package api

import (
	"net/http"
)

type sendMessageRequest struct {
	Body      string `json:"body"`
	BookingID *int64 `json:"booking_id"`
}

// handleContacts lists conversation partners; ?with= pins a partner first.
// GET /api/v1/messages/contacts
func (s *HTTPServer) handleContacts(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	with, err := queryInt64(r, "with")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contacts, err := s.deps.Messages.Contacts(r.Context(), sess, with)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// handleConversation returns messages newer than after_id. Clients poll it.
// GET /api/v1/messages/{userID}?after_id=&limit=
func (s *HTTPServer) handleConversation(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	with, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	afterID, err := queryInt64(r, "after_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs, err := s.deps.Messages.Conversation(r.Context(), sess, with, afterID, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	lastID := afterID
	if n := len(msgs); n > 0 {
		lastID = msgs[n-1].ID
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs, "last_id": lastID})
}

// POST /api/v1/messages/{userID}
func (s *HTTPServer) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	to, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := s.deps.Messages.Send(r.Context(), sess, to, req.Body, req.BookingID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
