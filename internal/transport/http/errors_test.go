package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/media"
	"github.com/cwrk-planet/chat-service/internal/store"

	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	req := require.New(t)

	req.Equal(http.StatusBadRequest, statusFor(fmt.Errorf("x: %w", domain.ErrInvalidInput)))
	req.Equal(http.StatusBadRequest, statusFor(domain.ErrInvalidReply))
	req.Equal(http.StatusBadRequest, statusFor(store.ErrInvalidCursor))
	req.Equal(http.StatusNotFound, statusFor(fmt.Errorf("x: %w", domain.ErrChatNotFound)))
	req.Equal(http.StatusConflict, statusFor(domain.ErrAlreadyMember))
	req.Equal(http.StatusRequestEntityTooLarge, statusFor(media.ErrTooLarge))
	// превышение лимита тела важнее обёртки invalid input
	req.Equal(http.StatusRequestEntityTooLarge,
		statusFor(fmt.Errorf("%w: %w", domain.ErrInvalidInput, &http.MaxBytesError{Limit: 10})))
	req.Equal(http.StatusInternalServerError, statusFor(fmt.Errorf("boom")))
}
