package session

import "github.com/quickfixgo/quickfix"

// Sender hands an outbound message to the FIX engine.
type Sender interface {
	Send(msg *quickfix.Message, sessionID quickfix.SessionID) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(msg *quickfix.Message, sessionID quickfix.SessionID) error

func (f SenderFunc) Send(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return f(msg, sessionID)
}

// EngineSender sends through the running quickfix initiator.
var EngineSender Sender = SenderFunc(func(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return quickfix.SendToTarget(msg, sessionID)
})

// DiscardSender drops every message. Used when replaying a journal.
var DiscardSender Sender = SenderFunc(func(*quickfix.Message, quickfix.SessionID) error {
	return nil
})
