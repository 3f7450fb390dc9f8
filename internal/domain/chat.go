package domain

import "time"

// ChatIDSeparator разделяет имена участников в идентификаторе чата.
const ChatIDSeparator = "-"

type Chat struct {
	ID        string    `json:"id"`
	User1     string    `json:"user1"`
	User2     string    `json:"user2"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatID возвращает идентификатор чата пары пользователей; порядок аргументов не важен.
func ChatID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ChatIDSeparator + b
}

// NewChat упорядочивает участников так же, как ChatID.
func NewChat(a, b string, now time.Time) Chat {
	if b < a {
		a, b = b, a
	}
	return Chat{
		ID:        ChatID(a, b),
		User1:     a,
		User2:     b,
		CreatedAt: now,
	}
}

func (c Chat) Has(username string) bool {
	return c.User1 == username || c.User2 == username
}
