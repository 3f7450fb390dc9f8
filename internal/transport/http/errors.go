package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/media"
	"github.com/cwrk-planet/chat-service/internal/service"
	"github.com/cwrk-planet/chat-service/internal/store"
	"github.com/cwrk-planet/chat-service/pkg/httputil"
)

var errInvalidJSON = errors.New("invalid json")

func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, media.ErrTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errInvalidJSON),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidReply),
		errors.Is(err, store.ErrInvalidCursor):
		return http.StatusBadRequest
	case store.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrAlreadyMember):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError: 5xx логируются с деталями, клиенту уходит общий текст
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "handler."+op, slog.Any("err", err))
		httputil.Error(w, status, "internal error", nil)
		return
	}

	var meta map[string]any
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		meta = map[string]any{"fields": verr.Fields}
	}
	httputil.Error(w, status, err.Error(), meta)
}
