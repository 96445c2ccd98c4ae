package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chatrelay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGetConversation(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveConversation(types.Conversation{
		Name:        "ocean haiku",
		Model:       "llama3-8b-8192",
		Prompt:      "You are a poet.",
		Temperature: 0.7,
		Messages: []types.Message{
			{Role: "user", Content: "Write a haiku about the ocean."},
			{Role: "assistant", Content: "Waves fold into foam"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := s.GetConversation(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestSaveConversationOverwrites(t *testing.T) {
	s := openTestStore(t)

	c, err := s.SaveConversation(types.Conversation{Name: "first", Model: "llama3-8b-8192"})
	require.NoError(t, err)

	c.Name = "renamed"
	_, err = s.SaveConversation(c)
	require.NoError(t, err)

	got, err := s.GetConversation(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	all, err := s.ListConversations()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteConversation(t *testing.T) {
	s := openTestStore(t)

	c, err := s.SaveConversation(types.Conversation{Name: "gone soon"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteConversation(c.ID))

	_, err = s.GetConversation(c.ID)
	assert.Error(t, err)
}

func TestAppendExchangePreservesOrder(t *testing.T) {
	s := openTestStore(t)

	c, err := s.SaveConversation(types.Conversation{
		Name:     "chat",
		Messages: []types.Message{{Role: "user", Content: "one"}, {Role: "assistant", Content: "two"}},
	})
	require.NoError(t, err)

	require.NoError(t, s.AppendExchange(c.ID,
		types.Message{Role: "user", Content: "three"},
		types.Message{Role: "assistant", Content: "four"},
	))

	got, err := s.GetConversation(c.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 4)
	for i, want := range []string{"one", "two", "three", "four"} {
		assert.Equal(t, want, got.Messages[i].Content)
	}
}

func TestAppendExchangeUnknownConversation(t *testing.T) {
	s := openTestStore(t)
	err := s.AppendExchange("no-such-id",
		types.Message{Role: "user", Content: "x"},
		types.Message{Role: "assistant", Content: "y"})
	assert.Error(t, err)
}

func TestFolders(t *testing.T) {
	s := openTestStore(t)

	f, err := s.SaveFolder(types.Folder{Name: "work"})
	require.NoError(t, err)
	assert.Equal(t, "chat", f.Type)

	c, err := s.SaveConversation(types.Conversation{Name: "standup", FolderID: f.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFolder(f.ID))

	folders, err := s.ListFolders()
	require.NoError(t, err)
	assert.Empty(t, folders)

	// Conversation survives, ungrouped.
	got, err := s.GetConversation(c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.FolderID)
}
