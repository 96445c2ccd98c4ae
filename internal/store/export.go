package store

import (
	"encoding/json"
	"fmt"

	"chatrelay/pkg/types"
)

// ArchiveVersion is the current export format version.
const ArchiveVersion = 4

// Export snapshots every conversation and folder into a versioned archive.
func (s *Store) Export() (types.ExportArchive, error) {
	history, err := s.ListConversations()
	if err != nil {
		return types.ExportArchive{}, err
	}
	folders, err := s.ListFolders()
	if err != nil {
		return types.ExportArchive{}, err
	}
	if history == nil {
		history = []types.Conversation{}
	}
	if folders == nil {
		folders = []types.Folder{}
	}
	return types.ExportArchive{Version: ArchiveVersion, History: history, Folders: folders}, nil
}

// Import upserts every conversation and folder from an archive. Existing
// records with the same id are overwritten, everything else is left alone.
// Returns the number of conversations and folders imported.
func (s *Store) Import(a types.ExportArchive) (int, int, error) {
	for _, f := range a.Folders {
		if _, err := s.SaveFolder(f); err != nil {
			return 0, 0, fmt.Errorf("import folder %s: %w", f.ID, err)
		}
	}
	for _, c := range a.History {
		if _, err := s.SaveConversation(c); err != nil {
			return 0, 0, fmt.Errorf("import conversation %s: %w", c.ID, err)
		}
	}
	return len(a.History), len(a.Folders), nil
}

// ParseArchive decodes an export archive. Legacy exports were a bare JSON
// array of conversations with no version envelope; those are still accepted.
func ParseArchive(raw []byte) (types.ExportArchive, error) {
	var a types.ExportArchive
	if err := json.Unmarshal(raw, &a); err == nil && (a.Version != 0 || a.History != nil || a.Folders != nil) {
		return a, nil
	}
	var history []types.Conversation
	if err := json.Unmarshal(raw, &history); err != nil {
		return types.ExportArchive{}, fmt.Errorf("unrecognized archive format")
	}
	return types.ExportArchive{Version: ArchiveVersion, History: history}, nil
}
