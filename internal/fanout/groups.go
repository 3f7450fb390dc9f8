package fanout

const (
	chatPrefix  = "chat_"
	groupPrefix = "group_"

	// BroadcastGroup: единственная группа широковещательных сообщений.
	BroadcastGroup = "broadcast_group"
)

// ForChat возвращает имя группы рассылки личного чата.
func ForChat(chatID string) string { return chatPrefix + chatID }

// ForGroup возвращает имя группы рассылки группового чата.
func ForGroup(groupID string) string { return groupPrefix + groupID }
