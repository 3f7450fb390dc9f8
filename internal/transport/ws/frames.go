package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedFrame: кадр не является JSON-объектом.
var ErrMalformedFrame = errors.New("malformed frame")

// FrameError: кадр разобран, но не соответствует схеме эндпоинта.
type FrameError struct {
	Field string
	Rule  string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame field %q: %s", e.Field, e.Rule)
}

// DirectFrame: входящий кадр личного чата.
type DirectFrame struct {
	Sender         *string `json:"sender" validate:"required"`
	Content        *string `json:"content" validate:"required"`
	FileAttachment *string `json:"file_attachment"`
	ReplyTo        *int64  `json:"reply_to"`
}

// GroupFrame: входящий кадр группового чата.
type GroupFrame struct {
	Sender  *string `json:"sender" validate:"required"`
	Content *string `json:"content" validate:"required"`
	ReplyTo *int64  `json:"reply_to"`
}

// BroadcastFrame: входящий кадр общего канала.
type BroadcastFrame struct {
	Sender  *string `json:"sender" validate:"required"`
	Content *string `json:"content" validate:"required"`
}

var frameValidator = newFrameValidator()

func newFrameValidator() *validator.Validate {
	v := validator.New()
	// в ошибках поле называется так же, как в кадре
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// decodeFrame возвращает ErrMalformedFrame или *FrameError; это разные ошибки.
func decodeFrame[T any](data []byte) (*T, error) {
	var f T
	if err := json.Unmarshal(data, &f); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &FrameError{Field: typeErr.Field, Rule: "type " + typeErr.Value}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	if err := frameValidator.Struct(&f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &FrameError{Field: verrs[0].Field(), Rule: verrs[0].Tag()}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &f, nil
}
