package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chats.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetChat(t *testing.T) {
	s := newTestSQLiteStore(t)

	chat, err := s.CreateChat("")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if chat.ID == "" || chat.Title != DefaultChatTitle {
		t.Fatalf("unexpected chat %+v", chat)
	}

	got, err := s.GetChatByID(chat.ID)
	if err != nil {
		t.Fatalf("GetChatByID: %v", err)
	}
	if got == nil || got.Title != DefaultChatTitle {
		t.Fatalf("GetChatByID = %+v", got)
	}

	missing, err := s.GetChatByID("does-not-exist")
	if err != nil || missing != nil {
		t.Fatalf("GetChatByID(missing) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestListChatsOrderedByUpdate(t *testing.T) {
	s := newTestSQLiteStore(t)

	first, _ := s.CreateChat("first")
	time.Sleep(5 * time.Millisecond)
	second, _ := s.CreateChat("second")
	time.Sleep(5 * time.Millisecond)

	if err := s.TouchChat(first.ID); err != nil {
		t.Fatalf("TouchChat: %v", err)
	}

	chats, err := s.ListChats()
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2", len(chats))
	}
	if chats[0].ID != first.ID || chats[1].ID != second.ID {
		t.Fatalf("unexpected order: %s, %s", chats[0].Title, chats[1].Title)
	}

	if err := s.TouchChat("missing"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("TouchChat(missing) = %v, want ErrChatNotFound", err)
	}
}

func TestMessagesRoundTripInOrder(t *testing.T) {
	s := newTestSQLiteStore(t)
	chat, _ := s.CreateChat("research")

	turns := []Message{
		{ChatID: chat.ID, Role: RoleUser, Content: "What is this about?"},
		{ChatID: chat.ID, Role: RoleAI, Content: "It is about Go."},
		{ChatID: chat.ID, Role: RoleUser, Content: "Tell me more."},
	}
	for i := range turns {
		if err := s.CreateMessage(&turns[i]); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
		if turns[i].ID == "" {
			t.Fatalf("expected message id to be set")
		}
	}

	messages, err := s.GetMessagesByChatID(chat.ID)
	if err != nil {
		t.Fatalf("GetMessagesByChatID: %v", err)
	}
	if len(messages) != len(turns) {
		t.Fatalf("got %d messages, want %d", len(messages), len(turns))
	}
	for i := range turns {
		if messages[i].Role != turns[i].Role || messages[i].Content != turns[i].Content {
			t.Errorf("message %d = %+v, want %+v", i, messages[i], turns[i])
		}
	}

	if err := s.CreateMessage(&Message{ChatID: chat.ID, Role: "model", Content: "x"}); err == nil {
		t.Fatalf("expected role constraint violation")
	}
}

func TestCreateChatPropagatesDatabaseErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectPrepare("INSERT INTO chats").
		ExpectExec().
		WithArgs(sqlmock.AnyArg(), "broken", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))

	s := &SQLiteStore{db: db}
	if _, err := s.CreateChat("broken"); err == nil {
		t.Fatalf("expected error from failing insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListChatsPropagatesQueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, title, created_at, updated_at FROM chats").
		WillReturnError(errors.New("database is locked"))

	s := &SQLiteStore{db: db}
	if _, err := s.ListChats(); err == nil {
		t.Fatalf("expected error from failing query")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
