package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/fanout"

	"github.com/samber/lo"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type senderMock struct {
	mock.Mock
}

func (m *senderMock) SendToGroup(group string, env fanout.Envelope) int {
	args := m.Called(group, env)
	return args.Int(0)
}

type prefixResolver string

func (p prefixResolver) URL(key string) string { return string(p) + key }

var created = time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)

func TestMessageCreated_SendsOnceToChatGroup(t *testing.T) {
	req := require.New(t)

	// Given
	out := &senderMock{}
	out.On("SendToGroup", "chat_alice-bob", mock.Anything).Return(2).Once()
	b := New(out, prefixResolver("/media/"))

	// When
	b.MessageCreated(context.Background(), domain.Message{
		ID:             7,
		ChatID:         "alice-bob",
		Sender:         "alice",
		Content:        "hi",
		FileAttachment: lo.ToPtr("chat_files/x.png"),
		ReplyTo:        lo.ToPtr(int64(3)),
		CreatedAt:      created,
	})

	// Then
	out.AssertExpectations(t)
	out.AssertNumberOfCalls(t, "SendToGroup", 1)

	env := out.Calls[0].Arguments.Get(1).(fanout.Envelope)
	data, err := json.Marshal(env)
	req.NoError(err)
	req.JSONEq(`{"sender":"alice","content":"hi","timestamp":"2024-03-01 09:30:15","file_attachment":"/media/chat_files/x.png","reply_to":3}`, string(data))
}

func TestMessageCreated_NullFileAndReply(t *testing.T) {
	req := require.New(t)

	out := &senderMock{}
	out.On("SendToGroup", "chat_alice-bob", mock.Anything).Return(0).Once()
	b := New(out, prefixResolver("/media/"))

	b.MessageCreated(context.Background(), domain.Message{
		ID: 1, ChatID: "alice-bob", Sender: "bob", Content: "yo", CreatedAt: created,
	})

	data, err := json.Marshal(out.Calls[0].Arguments.Get(1).(fanout.Envelope))
	req.NoError(err)
	req.JSONEq(`{"sender":"bob","content":"yo","timestamp":"2024-03-01 09:30:15","file_attachment":null,"reply_to":null}`, string(data))
}

func TestGroupMessageCreated_TargetsGroup(t *testing.T) {
	req := require.New(t)

	out := &senderMock{}
	out.On("SendToGroup", "group_g1", mock.Anything).Return(1).Once()
	b := New(out, nil)

	b.GroupMessageCreated(context.Background(), domain.GroupMessage{
		ID: 4, GroupID: "g1", Sender: "alice", Content: "all", ReplyTo: lo.ToPtr(int64(2)), CreatedAt: created,
	})

	out.AssertExpectations(t)
	env := out.Calls[0].Arguments.Get(1).(fanout.Envelope)
	req.Equal(fanout.KindGroup, env.Kind)
	req.Nil(env.FileAttachment)
	req.Equal(int64(2), *env.ReplyTo)
	req.Equal("2024-03-01 09:30:15", env.Timestamp)
}

func TestCommonMessageCreated_Broadcasts(t *testing.T) {
	req := require.New(t)

	out := &senderMock{}
	out.On("SendToGroup", fanout.BroadcastGroup, mock.Anything).Return(5).Once()
	b := New(out, nil)

	b.CommonMessageCreated(context.Background(), domain.CommonMessage{
		ID: 9, Sender: "carol", Content: "hello all", CreatedAt: created,
	})

	out.AssertExpectations(t)
	data, err := json.Marshal(out.Calls[0].Arguments.Get(1).(fanout.Envelope))
	req.NoError(err)
	req.JSONEq(`{"sender":"carol","content":"hello all","timestamp":"2024-03-01 09:30:15"}`, string(data))
}
