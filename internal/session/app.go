// Package session implements the quickfix Application that logs in to the
// venue, discovers accounts and instruments, and reduces venue messages into
// the shared store.
package session

import (
	"sync"
	"time"

	"fixharness/internal/bus"
	"fixharness/internal/completion"
	"fixharness/internal/fixmsg"
	"fixharness/internal/idgen"
	"fixharness/internal/model"
	"fixharness/internal/model/enum"
	"fixharness/internal/obs"
	"fixharness/internal/og"
	"fixharness/internal/store"
	"fixharness/pkg/exception"

	"github.com/quickfixgo/quickfix"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// DefaultMarker tags orders placed by the harness so their positions can be
// recognised and closed.
const DefaultMarker = "fix_example_test"

// Config wires the application to its collaborators. Zero values fall back
// to defaults.
type Config struct {
	Credentials Credentials
	Marker      string
	Sender      Sender
	Journal     *bus.Journal
	Metrics     *obs.Metrics
	IDs         *idgen.Generator
	Now         func() time.Time
}

var _ quickfix.Application = (*App)(nil)

// App is the quickfix.Application of the harness. Engine callbacks mutate the
// store and toggle the completion signal; the trading driver reads both.
type App struct {
	cfg      Config
	store    *store.Store
	signal   *completion.Signal
	gateway  *og.Gateway
	requests *RequestBuilder
	seq      *Sequencer

	mu           sync.RWMutex
	sessionID    quickfix.SessionID
	hasSession   bool
	status       *model.SessionStatus
	sessionStart time.Time
}

// NewApp creates an application with an empty store and a pending signal.
func NewApp(cfg Config) *App {
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	if cfg.Sender == nil {
		cfg.Sender = EngineSender
	}
	if cfg.IDs == nil {
		cfg.IDs = idgen.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &App{
		cfg:      cfg,
		store:    store.New(),
		signal:   completion.New(),
		gateway:  og.NewGateway(),
		requests: NewRequestBuilder(cfg.IDs, cfg.Now),
		seq:      NewSequencer(),
	}
}

// Store returns the shared state store.
func (a *App) Store() *store.Store { return a.store }

// Signal returns the completion signal.
func (a *App) Signal() *completion.Signal { return a.signal }

// Gateway returns the order gateway.
func (a *App) Gateway() *og.Gateway { return a.gateway }

// Phase returns the login sequence phase.
func (a *App) Phase() Phase { return a.seq.Phase() }

// Marker returns the secondary client order id carried by harness orders.
func (a *App) Marker() string { return a.cfg.Marker }

// SessionStatus returns the last trading session status received.
func (a *App) SessionStatus() (model.SessionStatus, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.status == nil {
		return model.SessionStatus{}, false
	}
	return *a.status, true
}

// SessionID returns the session recorded on creation.
func (a *App) SessionID() (quickfix.SessionID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID, a.hasSession
}

func (a *App) OnCreate(sessionID quickfix.SessionID) {
	a.mu.Lock()
	a.sessionID = sessionID
	a.hasSession = true
	a.mu.Unlock()
	a.seq.Reset()
	logs.Infof("session created: %s", sessionID)
}

func (a *App) OnLogon(sessionID quickfix.SessionID) {
	logs.Infof("Login begun for %s", a.cfg.Credentials.Username)
	a.mu.Lock()
	a.sessionStart = a.cfg.Now()
	a.mu.Unlock()
	a.advance(PhaseAuthenticating)
	a.send(a.requests.UserRequest(a.cfg.Credentials))
}

func (a *App) OnLogout(sessionID quickfix.SessionID) {
	logs.Infof("Logged out %s", a.cfg.Credentials.Username)
	a.seq.Reset()
}

func (a *App) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {
	a.record(enum.EventOutboundAdmin, msg)
}

func (a *App) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	a.record(enum.EventOutboundApp, msg)
	return nil
}

func (a *App) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	a.record(enum.EventInboundAdmin, msg)
	a.dispatch(msg)
	return nil
}

// FromApp never rejects: malformed or unexpected messages are dropped here
// instead of being bounced back to the venue.
func (a *App) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	a.record(enum.EventInboundApp, msg)
	a.dispatch(msg)
	return nil
}

func (a *App) record(kind enum.EventKind, msg *quickfix.Message) {
	if a.cfg.Journal == nil {
		return
	}
	a.cfg.Journal.Record(kind, []byte(msg.String()))
}

func (a *App) dispatch(msg *quickfix.Message) {
	start := time.Now()
	kind := fixmsg.KindOf(fixmsg.MsgType(msg))

	var err error
	switch kind {
	case fixmsg.KindUserResponse:
		err = a.onUserResponse(msg)
	case fixmsg.KindTradingSessionStatus:
		err = a.onTradingSessionStatus(msg)
	case fixmsg.KindCollateralReport:
		err = a.onCollateralReport(msg)
	case fixmsg.KindMarketDataSnapshot:
		err = a.onMarketDataSnapshot(msg)
	case fixmsg.KindExecutionReport:
		err = a.onExecutionReport(msg)
	case fixmsg.KindPositionReport:
		err = a.onPositionReport(msg)
	case fixmsg.KindPositionAck:
		err = a.onPositionAck(msg)
	case fixmsg.KindBusinessReject:
		err = a.onBusinessReject(msg)
	}

	a.cfg.Metrics.ObserveInbound(kind, time.Since(start))
	if err != nil {
		a.cfg.Metrics.IncDropped(kind)
		logs.Debugf("drop %s message, err: %+v", kind, err)
	}
}

func (a *App) advance(next Phase) {
	if err := a.seq.Advance(next); err != nil {
		logs.Warnf("login sequence, err: %+v", err)
	}
}

// send never fails the caller: transport errors are logged and counted.
func (a *App) send(msg *quickfix.Message) {
	sessionID, ok := a.SessionID()
	if !ok {
		logs.Errorf("send %s, err: %+v", fixmsg.MsgType(msg), exception.ErrNoSession)
		a.cfg.Metrics.IncSendFailure()
		return
	}
	if err := a.cfg.Sender.Send(msg, sessionID); err != nil {
		logs.Errorf("send %s, err: %+v", fixmsg.MsgType(msg), errors.Wrap(exception.ErrSendFailed, err.Error()))
		a.cfg.Metrics.IncSendFailure()
		return
	}
	a.cfg.Metrics.IncOutbound()
}
