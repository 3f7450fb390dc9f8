package fanout

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_DirectRelayShape(t *testing.T) {
	b, err := json.Marshal(DirectEnvelope("alice", "hi", nil, nil, ""))
	require.NoError(t, err)
	require.JSONEq(t, `{"sender":"alice","content":"hi","file_attachment":null,"reply_to":null}`, string(b))
}

// Кадр живой группы не несёт вложения, но конверт всё равно содержит
// "file_attachment":null: у группового конверта одна форма на обоих путях
// (живой и после записи), отличается только timestamp. Ключ не убирать.
func TestEnvelope_GroupRelayKeepsFileKey(t *testing.T) {
	b, err := json.Marshal(GroupEnvelope("alice", "hi team", nil, lo.ToPtr(int64(7)), ""))
	require.NoError(t, err)
	require.Equal(t, `{"sender":"alice","content":"hi team","file_attachment":null,"reply_to":7}`, string(b))
}

func TestEnvelope_SameBytesExceptTimestamp(t *testing.T) {
	req := require.New(t)
	file := lo.ToPtr("/media/chat_files/cat.png")
	reply := lo.ToPtr(int64(42))

	for _, build := range []func(string) Envelope{
		func(ts string) Envelope { return DirectEnvelope("alice", "look", file, reply, ts) },
		func(ts string) Envelope { return GroupEnvelope("alice", "look", file, reply, ts) },
	} {
		relay, err := json.Marshal(build(""))
		req.NoError(err)
		persisted, err := json.Marshal(build("2026-10-16 10:00:00"))
		req.NoError(err)

		req.Equal(
			`{"sender":"alice","content":"look","file_attachment":"/media/chat_files/cat.png","reply_to":42}`,
			string(relay))
		req.Equal(
			`{"sender":"alice","content":"look","timestamp":"2026-10-16 10:00:00","file_attachment":"/media/chat_files/cat.png","reply_to":42}`,
			string(persisted))
	}
}

func TestEnvelope_BroadcastShape(t *testing.T) {
	b, err := json.Marshal(BroadcastEnvelope("carol", "hello all", "2026-10-16 10:00:00"))
	require.NoError(t, err)
	require.Equal(t, `{"sender":"carol","content":"hello all","timestamp":"2026-10-16 10:00:00"}`, string(b))
}

func TestEnvelope_UnknownKind(t *testing.T) {
	_, err := json.Marshal(Envelope{Sender: "a"})
	require.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2026, 10, 16, 13, 4, 5, 999, loc)
	require.Equal(t, "2026-10-16 10:04:05", FormatTimestamp(ts))
}
