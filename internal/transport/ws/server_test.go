package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/badgerstore"
	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/fanout"
	"github.com/cwrk-planet/chat-service/internal/notify"
	"github.com/cwrk-planet/chat-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv   *httptest.Server
	hub   *fanout.Hub
	store *store.Store
}

func newTestEnv(t *testing.T, opts Options) testEnv {
	t.Helper()

	repo, err := badgerstore.Open(badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	hub := fanout.NewHub()
	st := store.New(repo)
	st.Subscribe(notify.New(hub, nil))

	s := NewServer(hub, st.Unobserved(), opts)
	r := chi.NewRouter()
	r.Get("/ws/chat/{chat_id}/", s.HandleChat)
	r.Get("/ws/group/{group_id}/", s.HandleGroup)
	r.Get("/ws/broadcast/", s.HandleBroadcast)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return testEnv{srv: srv, hub: hub, store: st}
}

func (e testEnv) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readText(t *testing.T, c *websocket.Conn) string {
	t.Helper()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

// expectSilence должен быть последним чтением: после таймаута соединение непригодно
func expectSilence(t *testing.T, c *websocket.Conn) {
	t.Helper()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, data, err := c.ReadMessage()
	require.Error(t, err, "unexpected frame %s", data)
}

func seedUsers(t *testing.T, st *store.Store, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, st.CreateUser(context.Background(), &domain.User{Username: n}))
	}
}

func TestChat_RelayReachesBothSessions(t *testing.T) {
	req := require.New(t)
	e := newTestEnv(t, Options{})

	// Given: две сессии в чате alice-bob
	a := e.dial(t, "/ws/chat/alice-bob/")
	b := e.dial(t, "/ws/chat/alice-bob/")
	other := e.dial(t, "/ws/chat/alice-carol/")
	req.Equal(2, e.hub.Size(fanout.ForChat("alice-bob")))

	// When
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"sender":"alice","content":"hi"}`)))

	// Then: получают оба, включая отправителя
	want := `{"sender":"alice","content":"hi","file_attachment":null,"reply_to":null}`
	req.JSONEq(want, readText(t, b))
	req.JSONEq(want, readText(t, a))
	expectSilence(t, other)
}

func TestGroup_RelayKeepsOrder(t *testing.T) {
	req := require.New(t)
	e := newTestEnv(t, Options{})

	a := e.dial(t, "/ws/group/team/")
	b := e.dial(t, "/ws/group/team/")

	for _, text := range []string{"one", "two", "three"} {
		req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"sender":"alice","content":"`+text+`","reply_to":1}`)))
	}

	for _, text := range []string{"one", "two", "three"} {
		req.JSONEq(`{"sender":"alice","content":"`+text+`","file_attachment":null,"reply_to":1}`, readText(t, b))
	}
}

func TestChat_MalformedFramesAreSkipped(t *testing.T) {
	req := require.New(t)
	e := newTestEnv(t, Options{})

	a := e.dial(t, "/ws/chat/alice-bob/")
	b := e.dial(t, "/ws/chat/alice-bob/")

	// When: мусор, кадр без content, кадр с неверным типом, затем нормальный кадр
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"sender":"alice"}`)))
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"sender":"alice","content":"x","reply_to":"x"}`)))
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"sender":"alice","content":"ok"}`)))

	// Then: соединение живо и доставлен только последний
	req.JSONEq(`{"sender":"alice","content":"ok","file_attachment":null,"reply_to":null}`, readText(t, b))
	expectSilence(t, b)
}

func TestDisconnect_LeavesGroup(t *testing.T) {
	req := require.New(t)
	e := newTestEnv(t, Options{})
	group := fanout.ForGroup("team")

	a := e.dial(t, "/ws/group/team/")
	b := e.dial(t, "/ws/group/team/")
	req.Equal(2, e.hub.Size(group))

	// When: одна сессия закрывается без close-кадра
	req.NoError(a.UnderlyingConn().Close())

	// Then
	req.Eventually(func() bool { return e.hub.Size(group) == 1 }, 2*time.Second, 10*time.Millisecond)

	req.NoError(b.Close())
	req.Eventually(func() bool { return e.hub.Size(group) == 0 }, 2*time.Second, 10*time.Millisecond)
	req.Zero(e.hub.Groups())
}

func TestUpgradeFailure_LeavesGroup(t *testing.T) {
	req := require.New(t)
	e := newTestEnv(t, Options{})

	// When: обычный GET без websocket-рукопожатия
	resp, err := http.Get(e.srv.URL + "/ws/chat/x/")
	req.NoError(err)
	_ = resp.Body.Close()

	// Then: апгрейд отклонён, вход в группу отменён
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	req.Eventually(func() bool { return e.hub.Size(fanout.ForChat("x")) == 0 }, time.Second, 10*time.Millisecond)
	req.Zero(e.hub.Groups())
}

func TestBroadcast_PersistsThenDispatches(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newTestEnv(t, Options{})
	seedUsers(t, e.store, "carol")

	a := e.dial(t, "/ws/broadcast/")
	b := e.dial(t, "/ws/broadcast/")

	// When
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"sender":"carol","content":"hello all"}`)))

	// Then: одна запись и один конверт на участника (без второй рассылки от моста)
	gotB := readText(t, b)
	gotA := readText(t, a)

	rows, _, err := e.store.ListCommonMessages(ctx, store.Page{})
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal("carol", rows[0].Sender)

	want := `{"sender":"carol","content":"hello all","timestamp":"` + fanout.FormatTimestamp(rows[0].CreatedAt) + `"}`
	req.JSONEq(want, gotB)
	req.JSONEq(want, gotA)
	expectSilence(t, b)
}

func TestBroadcast_StorageFailureDispatchesNothing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newTestEnv(t, Options{})
	seedUsers(t, e.store, "carol")

	a := e.dial(t, "/ws/broadcast/")
	b := e.dial(t, "/ws/broadcast/")

	// When: отправитель не существует, затем нормальный кадр
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"sender":"ghost","content":"boo"}`)))
	req.NoError(a.WriteMessage(websocket.TextMessage, []byte(`{"sender":"carol","content":"still here"}`)))

	// Then: первый кадр не записан и не разослан, соединение осталось открытым
	req.Contains(readText(t, b), `"still here"`)

	rows, _, err := e.store.ListCommonMessages(ctx, store.Page{})
	req.NoError(err)
	req.Len(rows, 1)
}

func TestAPIPath_NotifiesJoinedSessions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	e := newTestEnv(t, Options{})
	seedUsers(t, e.store, "alice", "bob")

	a := e.dial(t, "/ws/chat/alice-bob/")
	b := e.dial(t, "/ws/chat/alice-bob/")

	first := &domain.Message{ChatID: "alice-bob", Sender: "bob", Content: "first"}
	req.NoError(e.store.CreateMessage(ctx, first))
	readText(t, a)
	readText(t, b)

	// When: ответ создаётся через управляющий путь
	reply := &domain.Message{ChatID: "alice-bob", Sender: "alice", Content: "re", ReplyTo: lo.ToPtr(first.ID)}
	req.NoError(e.store.CreateMessage(ctx, reply))

	// Then: ровно один конверт с timestamp и reply_to
	want := `{"sender":"alice","content":"re","timestamp":"` + fanout.FormatTimestamp(reply.CreatedAt) + `","file_attachment":null,"reply_to":` + strconv.FormatInt(first.ID, 10) + `}`
	req.JSONEq(want, readText(t, a))
	req.JSONEq(want, readText(t, b))
	expectSilence(t, a)
}

func TestSlowConsumer_IsDisconnected(t *testing.T) {
	req := require.New(t)
	e := newTestEnv(t, Options{SendBuffer: 1, WriteTimeout: 200 * time.Millisecond})
	group := fanout.ForChat("alice-bob")

	// Given: клиент подключён, но ничего не читает
	e.dial(t, "/ws/chat/alice-bob/")
	req.Equal(1, e.hub.Size(group))

	// When: буфер переполняется
	payload := strings.Repeat("x", 8<<10)
	for i := 0; i < 5000 && e.hub.Size(group) > 0; i++ {
		e.hub.SendToGroup(group, fanout.DirectEnvelope("alice", payload, nil, nil, ""))
	}

	// Then: сервер сам закрывает сессию и выводит её из группы
	req.Eventually(func() bool { return e.hub.Size(group) == 0 }, 2*time.Second, 10*time.Millisecond)
}
