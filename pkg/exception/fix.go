package exception

import "github.com/yanun0323/errors"

var (
	ErrFieldNotFound      = errors.New("fix: field not found")
	ErrFieldMalformed     = errors.New("fix: field malformed")
	ErrInvalidTransition  = errors.New("fix: invalid sequencer transition")
	ErrUnsupportedMsgType = errors.New("fix: unsupported message type")
)
