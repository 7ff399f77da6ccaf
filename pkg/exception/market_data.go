package exception

import "github.com/yanun0323/errors"

var (
	ErrUnknownInstrument  = errors.New("market data: unknown instrument")
	ErrMissingMinQuantity = errors.New("market data: instrument has no minimum quantity")
)
