package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gwi.com/research-assistant/internal/store"
)

// ChatService keeps a persistent message log per research chat and routes
// each new message through the session's RAG pipeline. The chat id is the
// session id used for indexing.
type ChatService struct {
	dbStore    *store.SQLiteStore
	ragService *RAGService
}

func NewChatService(db *store.SQLiteStore, rag *RAGService) *ChatService {
	return &ChatService{
		dbStore:    db,
		ragService: rag,
	}
}

func (s *ChatService) CreateChat(title string) (*store.Chat, error) {
	chat, err := s.dbStore.CreateChat(strings.TrimSpace(title))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat in DB: %w", err)
	}
	return chat, nil
}

func (s *ChatService) GetChats() ([]store.Chat, error) {
	return s.dbStore.ListChats()
}

func (s *ChatService) GetMessages(chatID string) ([]store.Message, error) {
	chat, err := s.dbStore.GetChatByID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil {
		return nil, store.ErrChatNotFound
	}
	return s.dbStore.GetMessagesByChatID(chatID)
}

// PostMessage stores the user's message, answers it with the chat's
// messages as history, and stores the answer.
func (s *ChatService) PostMessage(ctx context.Context, chatID, content string) (*Answer, error) {
	chat, err := s.dbStore.GetChatByID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify chat: %w", err)
	}
	if chat == nil {
		return nil, store.ErrChatNotFound
	}

	userMsg := store.Message{ChatID: chatID, Role: store.RoleUser, Content: content}
	if err := s.dbStore.CreateMessage(&userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	// History is read after the new message is stored, so the question is
	// also its last turn.
	stored, err := s.dbStore.GetMessagesByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	history := make([]ChatTurn, 0, len(stored))
	for _, m := range stored {
		history = append(history, ChatTurn{Role: m.Role, Content: m.Content})
	}

	answer, err := s.ragService.Ask(ctx, chatID, content, history)
	if err != nil {
		return nil, err
	}

	aiMsg := store.Message{ChatID: chatID, Role: store.RoleAI, Content: answer.Answer}
	if err := s.dbStore.CreateMessage(&aiMsg); err != nil {
		return nil, fmt.Errorf("failed to store answer: %w", err)
	}
	if err := s.dbStore.TouchChat(chatID); err != nil {
		log.Printf("Failed to bump updated_at for chat %s: %v", chatID, err)
	}
	return answer, nil
}
