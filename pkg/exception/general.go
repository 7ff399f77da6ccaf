package exception

import "github.com/yanun0323/errors"

// General errors
var (
	ErrNilInstance     = errors.New("nil instance")
	ErrInternal        = errors.New("internal error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRequestTimeout  = errors.New("request timed out")
	ErrQueueFull       = errors.New("queue full")
	ErrQueueClosed     = errors.New("queue closed")
)
