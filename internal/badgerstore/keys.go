package badgerstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/store"
)

// Ключи:
//
//	user:{username}
//	chat:{chat_id}
//	msg:{id20}                          сообщение
//	msgidx:{chat_id}:{ts19}:{id20}      индекс истории чата
//	group:{group_id}
//	gu:{group_id}:{username}
//	gmsg:{id20} / gmsgidx:{group_id}:{ts19}:{id20}
//	cmsg:{id20} / cmsgidx:{ts19}:{id20}
//
// Время и ID дополнены нулями, поэтому лексикографический порядок = хронологический.
const (
	prefixUser     = "user:"
	prefixChat     = "chat:"
	prefixMsg      = "msg:"
	prefixMsgIdx   = "msgidx:"
	prefixGroup    = "group:"
	prefixMember   = "gu:"
	prefixGMsg     = "gmsg:"
	prefixGMsgIdx  = "gmsgidx:"
	prefixCMsg     = "cmsg:"
	prefixCMsgIdx  = "cmsgidx:"
	indexSeparator = ":"
)

func userKey(username string) string { return prefixUser + username }
func chatKey(id string) string       { return prefixChat + id }
func groupKey(id string) string      { return prefixGroup + id }

func memberKey(groupID, username string) string {
	return prefixMember + groupID + indexSeparator + username
}

func idKey(prefix string, id int64) string {
	return fmt.Sprintf("%s%020d", prefix, id)
}

func indexKey(prefix string, at time.Time, id int64) string {
	return fmt.Sprintf("%s%019d%s%020d", prefix, at.UnixNano(), indexSeparator, id)
}

// parseIndexID достаёт ID из хвоста индексного ключа.
func parseIndexID(key string) (int64, error) {
	i := strings.LastIndex(key, indexSeparator)
	if i < 0 {
		return 0, fmt.Errorf("malformed index key %q", key)
	}
	return strconv.ParseInt(key[i+1:], 10, 64)
}

// seekKey: стартовая точка обратного обхода для страницы.
func seekKey(prefix string, cur *store.Cursor) string {
	if cur == nil {
		return prefix + "\xff"
	}
	return indexKey(prefix, cur.CreatedAt, cur.ID)
}
