package session

import (
	"fixharness/internal/fixmsg"
	"fixharness/internal/model"
	"fixharness/pkg/exception"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

func (a *App) onUserResponse(msg *quickfix.Message) error {
	status, err := fixmsg.RequireInt(&msg.Body, tag.UserStatus)
	if err != nil {
		return err
	}
	if status != fixmsg.UserStatusLoggedIn {
		text, _ := fixmsg.String(&msg.Body, tag.UserStatusText)
		logs.Warnf("user %s not logged in, status: %d, text: %s", a.cfg.Credentials.Username, status, text)
		return nil
	}
	a.advance(PhaseSessionActive)
	a.send(a.requests.TradingSessionStatusRequest())
	return nil
}

func (a *App) onTradingSessionStatus(msg *quickfix.Message) error {
	st := model.DecodeSessionStatus(msg, a.cfg.Now())
	a.mu.Lock()
	a.status = &st
	a.mu.Unlock()
	logs.Infof("Login complete for %s", a.cfg.Credentials.Username)

	a.advance(PhaseAccountsDiscovered)
	a.requestAccounts()
	a.subscribeMarketData(st)
	a.advance(PhaseMarketDataSubscribed)
	return nil
}

// onCollateralReport only completes the signal on the last report of a batch.
func (a *App) onCollateralReport(msg *quickfix.Message) error {
	acct, err := model.DecodeAccount(msg, a.cfg.Now())
	if err != nil {
		return err
	}
	a.store.Accounts.Put(acct.ID, acct)

	if last, ok := fixmsg.Bool(&msg.Body, tag.LastRptRequested); ok && last {
		a.signal.Complete()
	}
	return nil
}

func (a *App) onMarketDataSnapshot(msg *quickfix.Message) error {
	inst, err := model.DecodeInstrument(msg, a.cfg.Now())
	if err != nil {
		return err
	}
	a.store.Instruments.Put(inst.Symbol, inst)
	return nil
}

func (a *App) onExecutionReport(msg *quickfix.Message) error {
	rep, err := model.DecodeExecutionReport(msg, a.cfg.Now())
	if err != nil {
		return err
	}
	a.store.Orders.Put(rep.OrderID, rep)

	if rep.ClOrdID != "" {
		if order, err := a.gateway.Resolve(rep); err == nil {
			a.cfg.Metrics.ObserveOrderAck(rep.ReceivedAt.Sub(order.SentAt))
		}
	}

	if rep.Account != "" {
		if acct, ok := a.store.Accounts.Get(rep.Account); ok {
			a.send(a.requests.RequestForPositions(acct, fixmsg.PosReqTypePositions))
		} else {
			logs.Warnf("execution report %s for unknown account %s", rep.OrderID, rep.Account)
		}
	}

	a.signal.Complete()
	return nil
}

// onPositionReport completes the signal even when the report is dropped.
func (a *App) onPositionReport(msg *quickfix.Message) error {
	defer a.signal.Complete()

	rep := model.DecodePositionReport(msg, a.cfg.Now())
	if !rep.HasPosReqType {
		return errors.Wrapf(exception.ErrFieldNotFound, "tag %d", int(tag.PosReqType))
	}
	if rep.Ticket == "" {
		return errors.Wrapf(exception.ErrFieldNotFound, "tag %d", int(fixmsg.TagFXCMPosID))
	}

	if rep.Closed() {
		a.store.Positions.Delete(rep.Ticket)
		return nil
	}
	a.store.Positions.Put(rep.Ticket, rep)
	return nil
}

// onPositionAck completes the signal when no position report will follow.
func (a *App) onPositionAck(msg *quickfix.Message) error {
	result, err := fixmsg.RequireInt(&msg.Body, tag.PosReqResult)
	if err != nil {
		return err
	}
	total, hasTotal := fixmsg.Int(&msg.Body, tag.TotalNumPosReports)
	if result != fixmsg.PosReqResultValid || (hasTotal && total == 0) {
		text, _ := fixmsg.String(&msg.Body, tag.Text)
		logs.Debugf("position request answered without reports, result: %d, text: %s", result, text)
		a.signal.Complete()
	}
	return nil
}

func (a *App) onBusinessReject(msg *quickfix.Message) error {
	refMsgType, _ := fixmsg.String(&msg.Body, tag.RefMsgType)
	reason, _ := fixmsg.Int(&msg.Body, tag.BusinessRejectReason)
	text, _ := fixmsg.String(&msg.Body, tag.Text)
	logs.Warnf("business reject, ref msg type: %s, reason: %d, text: %s", refMsgType, reason, text)
	a.signal.Complete()
	return nil
}

func (a *App) requestAccounts() {
	a.signal.Begin()
	a.send(a.requests.CollateralInquiry())
}

func (a *App) subscribeMarketData(st model.SessionStatus) {
	if len(st.Symbols) == 0 {
		logs.Warnf("trading session status advertised no symbols, skip market data subscription")
		return
	}
	for _, symbol := range st.Symbols {
		a.send(a.requests.SecurityStatusRequest(symbol))
	}
	a.send(a.requests.MarketDataRequest(st.Symbols))
}
