package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrChatNotFound    = errors.New("chat not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrAlreadyMember   = errors.New("user already in the group")
	ErrInvalidReply    = errors.New("reply target must belong to the same conversation")
	ErrInvalidInput    = errors.New("invalid input")
)
