package media

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, max int64) *Store {
	t.Helper()
	s, err := New(Options{Root: t.TempDir(), URLPrefix: "/media", MaxSize: max})
	require.NoError(t, err)
	return s
}

func TestSave_KeepsExtensionFromName(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, 0)

	key, err := s.Save("Report.PDF", strings.NewReader("%PDF-1.4 hello"))
	req.NoError(err)
	req.True(strings.HasPrefix(key, "chat_files/"))
	req.True(strings.HasSuffix(key, ".pdf"))
	req.Equal("/media/"+key, s.URL(key))

	f, err := s.Open(key)
	req.NoError(err)
	defer f.Close()
	data, err := io.ReadAll(f)
	req.NoError(err)
	req.Equal("%PDF-1.4 hello", string(data))
}

func TestSave_SniffsExtensionWhenNameHasNone(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, 0)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	key, err := s.Save("blob", strings.NewReader(string(png)))
	req.NoError(err)
	req.True(strings.HasSuffix(key, ".png"), key)
}

func TestSave_RejectsOversized(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, 4)

	_, err := s.Save("a.txt", strings.NewReader("too long"))
	req.ErrorIs(err, ErrTooLarge)
}

func TestOpen_RejectsTraversal(t *testing.T) {
	s := newTestStore(t, 0)

	_, err := s.Open("chat_files/../../etc/passwd")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestHandler_ServesSavedFile(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t, 0)

	key, err := s.Save("note.txt", strings.NewReader("hi there"))
	req.NoError(err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, s.URL(key), nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("hi there", rec.Body.String())
}
