package session

import (
	"fmt"

	"github.com/quickfixgo/quickfix"
	"github.com/yanun0323/logs"
)

// LogFactory routes quickfix engine logs to the process logger.
type LogFactory struct {
	// Messages logs every inbound and outbound message at debug level.
	Messages bool
}

// NewLogFactory returns a factory that logs engine events only.
func NewLogFactory() LogFactory {
	return LogFactory{}
}

func (f LogFactory) Create() (quickfix.Log, error) {
	return engineLog{prefix: "engine", messages: f.Messages}, nil
}

func (f LogFactory) CreateSessionLog(sessionID quickfix.SessionID) (quickfix.Log, error) {
	return engineLog{prefix: sessionID.String(), messages: f.Messages}, nil
}

type engineLog struct {
	prefix   string
	messages bool
}

func (l engineLog) OnIncoming(raw []byte) {
	if l.messages {
		logs.Debugf("[%s] <- %s", l.prefix, printable(raw))
	}
}

func (l engineLog) OnOutgoing(raw []byte) {
	if l.messages {
		logs.Debugf("[%s] -> %s", l.prefix, printable(raw))
	}
}

func (l engineLog) OnEvent(text string) {
	logs.Infof("[%s] %s", l.prefix, text)
}

func (l engineLog) OnEventf(format string, a ...interface{}) {
	l.OnEvent(fmt.Sprintf(format, a...))
}

func printable(raw []byte) string {
	out := make([]byte, len(raw))
	for i, b := range raw {
		if b == 0x01 {
			b = '|'
		}
		out[i] = b
	}
	return string(out)
}
