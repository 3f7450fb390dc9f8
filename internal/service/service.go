package service

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cwrk-planet/chat-service/internal/store"
)

const DefaultMaxContentLen = 4000

// Uploader сохраняет вложение и возвращает его ключ.
type Uploader interface {
	Save(name string, r io.Reader) (string, error)
}

// Attachment: файл, пришедший вместе с сообщением.
type Attachment struct {
	Name string
	Body io.Reader
}

type Options struct {
	MaxContentLen int
}

// ChatService: управляющий путь: все записи идут через store.Store,
// поэтому о каждом созданном сообщении узнают подписчики хранилища.
type ChatService struct {
	store      *store.Store
	files      Uploader
	maxContent int
}

func NewChatService(st *store.Store, files Uploader, opts Options) *ChatService {
	if opts.MaxContentLen <= 0 {
		opts.MaxContentLen = DefaultMaxContentLen
	}
	return &ChatService{store: st, files: files, maxContent: opts.MaxContentLen}
}

func (s *ChatService) content(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalid("content", "required")
	}
	if utf8.RuneCountInString(text) > s.maxContent {
		return "", invalid("content", "max")
	}
	return text, nil
}

func (s *ChatService) upload(a *Attachment) (*string, error) {
	if a == nil {
		return nil, nil
	}
	if s.files == nil {
		return nil, invalid("file_attachment", "unsupported")
	}
	key, err := s.files.Save(a.Name, a.Body)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
