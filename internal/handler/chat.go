package handler

import (
	"net/http"

	"github.com/dukerupert/mealplan/internal/assistant"
	"github.com/dukerupert/mealplan/internal/logging"
	"github.com/dukerupert/mealplan/internal/websocket"
)

type ChatHandler struct {
	assistant      *assistant.Assistant
	members        MembershipResolver
	hub            *websocket.Hub
	originPatterns []string
}

func NewChatHandler(a *assistant.Assistant, members MembershipResolver, hub *websocket.Hub, originPatterns []string) *ChatHandler {
	return &ChatHandler{assistant: a, members: members, hub: hub, originPatterns: originPatterns}
}

// Chat answers one turn; the client sends the whole conversation.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if !h.assistant.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI assistant is not configured"})
		return
	}
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	var req assistant.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, err := h.assistant.Chat(r.Context(), hh, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// Socket upgrades to a WebSocket; the server keeps the conversation and the
// client sends one message per frame.
func (h *ChatHandler) Socket(w http.ResponseWriter, r *http.Request) {
	if !h.assistant.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI assistant is not configured"})
		return
	}
	hh, ok := currentHousehold(w, r, h.members)
	if !ok {
		return
	}
	conv := h.assistant.NewConversation(hh)
	websocket.Serve(w, r, h.hub, conv, h.originPatterns, logging.FromContext(r.Context()))
}
