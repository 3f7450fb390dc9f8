package domain

// User: username одновременно является идентификатором.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}
