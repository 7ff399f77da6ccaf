package exception

import "github.com/yanun0323/errors"

var (
	ErrUnknownAccount = errors.New("order: unknown account")
	ErrDuplicateOrder = errors.New("order: duplicate client order id")
	ErrUnknownOrder   = errors.New("order: unknown client order id")
	ErrRiskDenied     = errors.New("order: denied by risk")
	ErrOrderRejected  = errors.New("order: rejected by venue")
)
