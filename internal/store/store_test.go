package store_test

import (
	"context"
	"testing"

	"github.com/cwrk-planet/chat-service/internal/badgerstore"
	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/store"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type observerMock struct {
	mock.Mock
}

func (o *observerMock) MessageCreated(ctx context.Context, m domain.Message) {
	o.Called(m)
}

func (o *observerMock) GroupMessageCreated(ctx context.Context, m domain.GroupMessage) {
	o.Called(m)
}

func (o *observerMock) CommonMessageCreated(ctx context.Context, m domain.CommonMessage) {
	o.Called(m)
}

type panickyObserver struct{ observerMock }

func (p *panickyObserver) MessageCreated(context.Context, domain.Message) { panic("boom") }

func newStore(t *testing.T) *store.Store {
	t.Helper()
	repo, err := badgerstore.Open(badgerstore.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return store.New(repo)
}

func TestStore_CreateUser_PairsWithEveryUser(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()

	for _, name := range []string{"bob", "alice", "carol"} {
		req.NoError(s.CreateUser(ctx, &domain.User{Username: name, Name: name}))
	}

	chats, err := s.ListChats(ctx, "")
	req.NoError(err)
	ids := make([]string, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	req.ElementsMatch([]string{"alice-bob", "bob-carol", "alice-carol"}, ids)

	mine, err := s.ListChats(ctx, "alice")
	req.NoError(err)
	req.Len(mine, 2)
}

func TestStore_CreateMessage_NotifiesOnce(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()
	req.NoError(s.CreateUser(ctx, &domain.User{Username: "alice"}))
	req.NoError(s.CreateUser(ctx, &domain.User{Username: "bob"}))

	obs := &observerMock{}
	s.Subscribe(obs)
	obs.On("MessageCreated", mock.MatchedBy(func(m domain.Message) bool {
		return m.ChatID == "alice-bob" && m.ID > 0 && !m.CreatedAt.IsZero()
	})).Once()

	// When a message is created through the observed store
	req.NoError(s.CreateMessage(ctx, &domain.Message{ChatID: "alice-bob", Sender: "alice", Content: "hi"}))

	// Then the observer fires exactly once
	obs.AssertExpectations(t)
	obs.AssertNumberOfCalls(t, "MessageCreated", 1)
}

func TestStore_CreateMessage_FailedWriteDoesNotNotify(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	obs := &observerMock{}
	s.Subscribe(obs)

	err := s.CreateMessage(context.Background(), &domain.Message{ChatID: "nope", Sender: "ghost", Content: "x"})
	req.Error(err)
	obs.AssertNotCalled(t, "MessageCreated", mock.Anything)
}

func TestStore_Unobserved_SkipsObservers(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()
	req.NoError(s.CreateUser(ctx, &domain.User{Username: "carol"}))

	obs := &observerMock{}
	s.Subscribe(obs)

	req.NoError(s.Unobserved().CreateCommonMessage(ctx, &domain.CommonMessage{Sender: "carol", Content: "live"}))
	obs.AssertNotCalled(t, "CommonMessageCreated", mock.Anything)

	obs.On("CommonMessageCreated", mock.Anything).Once()
	req.NoError(s.CreateCommonMessage(ctx, &domain.CommonMessage{Sender: "carol", Content: "api"}))
	obs.AssertNumberOfCalls(t, "CommonMessageCreated", 1)
}

func TestStore_ObserverPanicDoesNotFailWrite(t *testing.T) {
	req := require.New(t)
	s := newStore(t)
	ctx := context.Background()
	req.NoError(s.CreateUser(ctx, &domain.User{Username: "alice"}))
	req.NoError(s.CreateUser(ctx, &domain.User{Username: "bob"}))

	after := &observerMock{}
	after.On("MessageCreated", mock.Anything).Once()
	s.Subscribe(&panickyObserver{})
	s.Subscribe(after)

	m := &domain.Message{ChatID: "alice-bob", Sender: "bob", Content: "still saved"}
	req.NoError(s.CreateMessage(ctx, m))

	got, err := s.GetMessage(ctx, m.ID)
	req.NoError(err)
	req.Equal("still saved", got.Content)
	after.AssertExpectations(t)
}

func TestPage_Normalize(t *testing.T) {
	req := require.New(t)
	req.Equal(store.DefaultLimit, store.Page{}.Normalize().Limit)
	req.Equal(store.MaxLimit, store.Page{Limit: 1000}.Normalize().Limit)
	req.Equal(7, store.Page{Limit: 7}.Normalize().Limit)
}

func TestCursor_RoundTrip(t *testing.T) {
	req := require.New(t)
	enc, err := store.EncodeCursor(store.Cursor{ID: 42})
	req.NoError(err)
	cur, err := store.DecodeCursor(enc)
	req.NoError(err)
	req.Equal(int64(42), cur.ID)

	cur, err = store.DecodeCursor("")
	req.NoError(err)
	req.Nil(cur)
}
