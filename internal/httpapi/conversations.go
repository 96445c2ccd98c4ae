package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"chatrelay/internal/store"
	"chatrelay/pkg/types"
)

// ConversationStore is the persistence surface behind the conversation and
// archive routes. *store.Store satisfies it.
type ConversationStore interface {
	ListConversations() ([]types.Conversation, error)
	GetConversation(id string) (types.Conversation, error)
	SaveConversation(c types.Conversation) (types.Conversation, error)
	DeleteConversation(id string) error
	ListFolders() ([]types.Folder, error)
	SaveFolder(f types.Folder) (types.Folder, error)
	DeleteFolder(id string) error
	Export() (types.ExportArchive, error)
	Import(a types.ExportArchive) (int, int, error)
}

func mountConversationRoutes(r chi.Router, st ConversationStore) {
	r.Route("/api/conversations", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			convs, err := st.ListConversations()
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, convs)
		})
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var c types.Conversation
			if !decodeJSON(w, req, &c) {
				return
			}
			saved, err := st.SaveConversation(c)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, saved)
		})
		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			c, err := st.GetConversation(chi.URLParam(req, "id"))
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, c)
		})
		r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
			var c types.Conversation
			if !decodeJSON(w, req, &c) {
				return
			}
			c.ID = chi.URLParam(req, "id")
			saved, err := st.SaveConversation(c)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, saved)
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			if err := st.DeleteConversation(chi.URLParam(req, "id")); err != nil {
				writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Route("/api/folders", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			folders, err := st.ListFolders()
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, folders)
		})
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var f types.Folder
			if !decodeJSON(w, req, &f) {
				return
			}
			saved, err := st.SaveFolder(f)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, saved)
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			if err := st.DeleteFolder(chi.URLParam(req, "id")); err != nil {
				writeStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Get("/api/export", func(w http.ResponseWriter, req *http.Request) {
		archive, err := st.Export()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="chatrelay_export.json"`)
		writeJSON(w, archive)
	})

	r.Post("/api/import", func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		archive, err := store.ParseArchive(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		nConv, nFold, err := st.Import(archive)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, map[string]int{"conversations": nConv, "folders": nFold})
	})
}

func decodeJSON(w http.ResponseWriter, req *http.Request, v any) bool {
	ct := req.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}
