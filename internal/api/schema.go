package api

import (
	"errors"
	"net/http"

	"github.com/chatdb/chatdb/internal/chat"
)

func handleDebugSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil || !deps.Chat.DatabaseReady() {
		writeError(r.Context(), w, http.StatusInternalServerError, chat.ErrDatabaseUnavailable.Error(), "")
		return
	}
	text, err := deps.Chat.Schema(r.Context())
	if err != nil {
		if errors.Is(err, chat.ErrDatabaseUnavailable) {
			writeError(r.Context(), w, http.StatusInternalServerError, err.Error(), "")
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "Failed to get schema", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schema":    text,
		"timestamp": timestamp(deps.Now),
	})
}
