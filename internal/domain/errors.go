package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSelection  = errors.New("no active market")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
