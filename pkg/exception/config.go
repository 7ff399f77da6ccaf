package exception

import "github.com/yanun0323/errors"

var (
	ErrMissingSetting = errors.New("config: missing setting")
	ErrInvalidSetting = errors.New("config: invalid setting")
)
