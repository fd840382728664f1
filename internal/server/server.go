// Package server exposes the dispatcher over HTTP so a chat-platform
// connector (or a test harness) can deliver messages and undo gestures as
// plain JSON.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mott-dev/mott/internal/bot"
)

// Server is the HTTP reference transport.
type Server struct {
	dispatcher *bot.Dispatcher
	log        *slog.Logger
}

// New creates a Server over a dispatcher.
func New(d *bot.Dispatcher, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{dispatcher: d, log: log}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /messages", s.handleMessage)
	mux.HandleFunc("POST /undo", s.handleUndo)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

type attachmentRequest struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"` // base64 in JSON
}

type messageRequest struct {
	ID          string              `json:"id"`
	GuildID     string              `json:"guild_id"`
	ChannelID   string              `json:"channel_id"`
	Sender      string              `json:"sender"`
	RoleIDs     []string            `json:"role_ids"`
	Text        string              `json:"text"`
	Attachments []attachmentRequest `json:"attachments,omitempty"`
}

type undoRequest struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

type dispatchResponse struct {
	Response string `json:"response"`
	Handled  bool   `json:"handled"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg := bot.Message{
		ID:        req.ID,
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		Sender:    req.Sender,
		RoleIDs:   req.RoleIDs,
		Text:      req.Text,
	}
	for _, att := range req.Attachments {
		msg.Attachments = append(msg.Attachments, bot.Attachment{
			ContentType: att.ContentType,
			Data:        att.Data,
		})
	}

	resp, handled := s.dispatcher.HandleMessage(r.Context(), msg)
	writeJSON(w, http.StatusOK, dispatchResponse{Response: resp, Handled: handled})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, handled := s.dispatcher.HandleUndo(r.Context(), bot.Undo{
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		MessageID: req.MessageID,
	})
	writeJSON(w, http.StatusOK, dispatchResponse{Response: resp, Handled: handled})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
