package service

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidToken     = errors.New("invalid or expired token")
)
