package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Dir: каталог вложений внутри корня хранилища.
const Dir = "chat_files"

var (
	ErrTooLarge   = errors.New("attachment is too large")
	ErrInvalidKey = errors.New("invalid attachment key")
)

// sniffLen: сколько байт читать для определения типа
const sniffLen = 3072

type Options struct {
	Root      string // ./media
	URLPrefix string // /media/
	MaxSize   int64  // 0: без ограничения
}

// Store хранит вложения на локальном диске под случайными именами.
type Store struct {
	root      string
	urlPrefix string
	maxSize   int64
}

func New(opts Options) (*Store, error) {
	if opts.Root == "" {
		opts.Root = "media"
	}
	if opts.URLPrefix == "" {
		opts.URLPrefix = "/media/"
	}
	if !strings.HasSuffix(opts.URLPrefix, "/") {
		opts.URLPrefix += "/"
	}
	if err := os.MkdirAll(filepath.Join(opts.Root, Dir), 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{root: opts.Root, urlPrefix: opts.URLPrefix, maxSize: opts.MaxSize}, nil
}

// Save сохраняет содержимое и возвращает ключ вида chat_files/<uuid><ext>.
// Расширение берётся из имени файла, а если его нет: по содержимому.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	head = head[:n]

	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if ext == "" {
		ext = mimetype.Detect(head).Extension()
	}

	key := path.Join(Dir, uuid.NewString()+ext)
	dst := filepath.Join(s.root, filepath.FromSlash(key))

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}

	src := io.MultiReader(bytes.NewReader(head), r)
	if s.maxSize > 0 {
		src = io.LimitReader(src, s.maxSize+1)
	}
	written, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && written > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return key, nil
}

// URL: публичный адрес вложения по ключу.
func (s *Store) URL(key string) string {
	return s.urlPrefix + key
}

func (s *Store) Open(key string) (*os.File, error) {
	clean := path.Clean(key)
	if clean != key || !strings.HasPrefix(clean, Dir+"/") {
		return nil, ErrInvalidKey
	}
	return os.Open(filepath.Join(s.root, filepath.FromSlash(clean)))
}

// Handler отдаёт файлы по URLPrefix; монтируется роутером.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(s.urlPrefix, http.FileServer(http.Dir(s.root)))
}
