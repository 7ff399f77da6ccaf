package exception

import "github.com/yanun0323/errors"

var (
	ErrNoSession       = errors.New("session: not created")
	ErrSendFailed      = errors.New("session: send failed")
	ErrConnectionClose = errors.New("connection closed")
)
