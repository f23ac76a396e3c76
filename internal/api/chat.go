package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chatdb/chatdb/internal/chat"
	"github.com/chatdb/chatdb/internal/config"
	"github.com/chatdb/chatdb/internal/observability"
)

type chatRequest struct {
	Message string `json:"message"`
}

func handleChat(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if cfg.HTTP.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.HTTP.MaxBodyBytes)
	}

	var request chatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(r.Context(), w, http.StatusRequestEntityTooLarge, "Request body too large", "")
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "Message is required", "")
		return
	}
	question := strings.TrimSpace(request.Message)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "Message is required", "")
		return
	}

	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, chat.ErrGenerationUnavailable.Error(), "")
		return
	}

	envelope, err := deps.Chat.Ask(r.Context(), question)
	if err != nil {
		logger := observability.RequestLogger(r.Context(), deps.Logger)
		switch {
		case errors.Is(err, chat.ErrGenerationUnavailable), errors.Is(err, chat.ErrDatabaseUnavailable):
			logger.Warn("chat unavailable", slog.Any("error", err))
			writeError(r.Context(), w, http.StatusInternalServerError, err.Error(), "")
		default:
			logger.Error("chat request failed", slog.Any("error", err))
			writeError(r.Context(), w, http.StatusInternalServerError, "An error occurred while processing your request", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}
