package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gwi.com/research-assistant/internal/core"
	"gwi.com/research-assistant/internal/loader"
	"gwi.com/research-assistant/internal/store"
)

type APIHandler struct {
	ragService  *core.RAGService
	chatService *core.ChatService
}

func NewAPIHandler(rs *core.RAGService, cs *core.ChatService) *APIHandler {
	return &APIHandler{ragService: rs, chatService: cs}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service errors onto status codes. Anything it does
// not recognise is logged and reported as a 500 with a generic message.
func writeServiceError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrInvalidSessionID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrChatNotFound):
		writeError(w, http.StatusNotFound, "Chat not found")
	case errors.Is(err, core.ErrNoContent):
		writeError(w, http.StatusUnprocessableEntity, "No content could be loaded from the given URLs")
	default:
		log.Printf("Error during %s: %v", what, err)
		writeError(w, http.StatusInternalServerError, "Failed to "+what)
	}
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "API running"})
}

type ProcessRequest struct {
	SessionID string   `json:"session_id"`
	URLs      []string `json:"urls"`
}

func (h *APIHandler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls must contain at least one URL")
		return
	}
	urls, err := loader.CleanURLs(req.URLs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ragService.Process(r.Context(), req.SessionID, urls)
	if err != nil {
		writeServiceError(w, err, "process articles")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type AskRequest struct {
	SessionID   string          `json:"session_id"`
	Question    string          `json:"question"`
	ChatHistory []core.ChatTurn `json:"chat_history"`
}

func (h *APIHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question cannot be empty")
		return
	}

	answer, err := h.ragService.Ask(r.Context(), req.SessionID, req.Question, req.ChatHistory)
	if err != nil {
		writeServiceError(w, err, "answer question")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type CreateChatRequest struct {
	Title string `json:"title"`
}

type CreateChatResponse struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	chat, err := h.chatService.CreateChat(req.Title)
	if err != nil {
		writeServiceError(w, err, "create chat")
		return
	}
	writeJSON(w, http.StatusCreated, CreateChatResponse{SessionID: chat.ID, Title: chat.Title})
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatService.GetChats()
	if err != nil {
		writeServiceError(w, err, "list chats")
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	messages, err := h.chatService.GetMessages(chatID)
	if err != nil {
		writeServiceError(w, err, "get messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type PostMessageRequest struct {
	Message string `json:"message"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message content cannot be empty")
		return
	}

	answer, err := h.chatService.PostMessage(r.Context(), chatID, req.Message)
	if err != nil {
		writeServiceError(w, err, "post message")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
