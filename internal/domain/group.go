package domain

type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Admin string `json:"admin"`
}

// GroupUser: членство пользователя в группе, уникально по паре (группа, пользователь).
type GroupUser struct {
	ID       int64  `json:"id"`
	GroupID  string `json:"group"`
	Username string `json:"user"`
}
