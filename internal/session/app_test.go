package session

import (
	"context"
	"strings"
	"testing"

	"fixharness/internal/bus"
	"fixharness/internal/fixmsg"
	"fixharness/internal/model/enum"
	"fixharness/internal/obs"
	"fixharness/pkg/exception"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSequence(t *testing.T) {
	app, sender, _ := newTestApp()
	assert.Equal(t, PhaseSessionCreated, app.Phase())
	assert.False(t, app.Signal().Idle())

	app.OnLogon(testSessionID)
	assert.Equal(t, PhaseAuthenticating, app.Phase())
	reqs := sender.ofType(fixmsg.MsgTypeUserRequest)
	require.Len(t, reqs, 1)
	username, _ := fixmsg.String(&reqs[0].Body, tag.Username)
	password, _ := fixmsg.String(&reqs[0].Body, tag.Password)
	assert.Equal(t, "trader", username)
	assert.Equal(t, "secret", password)

	require.Nil(t, app.FromApp(userResponse(fixmsg.UserStatusLoggedIn), testSessionID))
	assert.Equal(t, PhaseSessionActive, app.Phase())
	require.Len(t, sender.ofType(fixmsg.MsgTypeTradingSessionStatusRequest), 1)

	require.Nil(t, app.FromApp(tradingSessionStatus("EUR/USD", "USD/JPY"), testSessionID))
	assert.Equal(t, PhaseMarketDataSubscribed, app.Phase())
	assert.Len(t, sender.ofType(fixmsg.MsgTypeCollateralInquiry), 1)
	assert.Len(t, sender.ofType(fixmsg.MsgTypeSecurityStatusRequest), 2)
	mdr := sender.ofType(fixmsg.MsgTypeMarketDataRequest)
	require.Len(t, mdr, 1)
	symbols, n := fixmsg.GroupValues(fixmsg.FieldsOf(mdr[0]), tag.NoRelatedSym, tag.Symbol)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"EUR/USD", "USD/JPY"}, symbols)
	assert.False(t, app.Signal().Idle())

	st, ok := app.SessionStatus()
	require.True(t, ok)
	assert.Equal(t, 2, st.AdvertisedSymbols)

	app.OnLogout(testSessionID)
	assert.Equal(t, PhaseSessionCreated, app.Phase())
}

func TestUserResponseNotLoggedIn(t *testing.T) {
	app, sender, _ := newTestApp()
	app.OnLogon(testSessionID)

	app.FromApp(userResponse(2), testSessionID)
	assert.Equal(t, PhaseAuthenticating, app.Phase())
	assert.Empty(t, sender.ofType(fixmsg.MsgTypeTradingSessionStatusRequest))
}

func TestTradingSessionStatusWithoutSymbols(t *testing.T) {
	app, sender, _ := newTestApp()
	app.FromApp(tradingSessionStatus(), testSessionID)

	assert.Len(t, sender.ofType(fixmsg.MsgTypeCollateralInquiry), 1)
	assert.Empty(t, sender.ofType(fixmsg.MsgTypeSecurityStatusRequest))
	assert.Empty(t, sender.ofType(fixmsg.MsgTypeMarketDataRequest))
}

func TestRepeatedTradingSessionStatusRediscovers(t *testing.T) {
	app, sender, _ := newTestApp()
	app.OnLogon(testSessionID)
	app.FromApp(userResponse(fixmsg.UserStatusLoggedIn), testSessionID)
	app.FromApp(tradingSessionStatus("EUR/USD"), testSessionID)
	app.FromApp(tradingSessionStatus("EUR/USD"), testSessionID)

	assert.Equal(t, PhaseMarketDataSubscribed, app.Phase())
	assert.Len(t, sender.ofType(fixmsg.MsgTypeCollateralInquiry), 2)
}

func TestCollateralBatchCompletesOnLastReport(t *testing.T) {
	app, _, _ := newTestApp()

	app.FromApp(collateralReport("A1", ptr(false)), testSessionID)
	assert.False(t, app.Signal().Idle())
	app.FromApp(collateralReport("A2", nil), testSessionID)
	assert.False(t, app.Signal().Idle())
	app.FromApp(collateralReport("A3", ptr(true)), testSessionID)
	assert.True(t, app.Signal().Idle())

	assert.Equal(t, []string{"A1", "A2", "A3"}, app.Accounts())
	acct, ok := app.Store().Accounts.Get("A1")
	require.True(t, ok)
	assert.Equal(t, "USD", acct.Currency)
	require.Len(t, acct.Parties, 1)
	assert.Equal(t, "FXCM ID", acct.Parties[0].ID)
}

func TestCollateralReportWithoutAccountIsDropped(t *testing.T) {
	app, _, metrics := newTestApp()
	app.FromApp(collateralReport("", ptr(true)), testSessionID)

	assert.Zero(t, app.Store().Accounts.Len())
	assert.False(t, app.Signal().Idle())
	assert.Equal(t, uint64(1), metrics.Snapshot().Dropped[fixmsg.KindCollateralReport])
}

func TestMarketDataSnapshotUpsert(t *testing.T) {
	app, _, metrics := newTestApp()
	app.FromApp(marketDataSnapshot("EUR/USD", "1"), testSessionID)
	app.FromApp(marketDataSnapshot("EUR/USD", "2"), testSessionID)
	app.FromApp(marketDataSnapshot("", "1"), testSessionID)

	assert.Equal(t, []string{"EUR/USD"}, app.Instruments())
	inst, ok := app.Instrument("EUR/USD")
	require.True(t, ok)
	assert.Equal(t, "2", inst.MinQuantity.String())
	assert.Equal(t, "1.085", inst.Bid.String())
	assert.Equal(t, uint64(1), metrics.Snapshot().Dropped[fixmsg.KindMarketDataSnapshot])

	qty, err := app.OrderQuantity("EUR/USD")
	require.NoError(t, err)
	assert.Equal(t, "20000", qty.String())
}

func TestExecutionReportReplaceIsIdempotent(t *testing.T) {
	app, sender, _ := newTestApp()
	discover(app, "A1")
	app.Signal().Begin()

	msg := executionReport("O1", "", "A1", fixmsg.OrdStatusFilled)
	app.FromApp(msg, testSessionID)
	app.FromApp(msg, testSessionID)

	assert.Equal(t, []string{"O1"}, app.Orders())
	assert.True(t, app.Signal().Idle())
	refresh := sender.ofType(fixmsg.MsgTypeRequestForPositions)
	require.Len(t, refresh, 2)
	account, _ := fixmsg.String(&refresh[0].Body, tag.Account)
	assert.Equal(t, "A1", account)
}

func TestExecutionReportWithoutOrderIDIsDropped(t *testing.T) {
	app, sender, metrics := newTestApp()
	discover(app, "A1")
	app.Signal().Begin()

	app.FromApp(executionReport("", "C1", "A1", fixmsg.OrdStatusFilled), testSessionID)
	assert.Zero(t, app.Store().Orders.Len())
	assert.False(t, app.Signal().Idle())
	assert.Empty(t, sender.ofType(fixmsg.MsgTypeRequestForPositions))
	assert.Equal(t, uint64(1), metrics.Snapshot().Dropped[fixmsg.KindExecutionReport])
}

func TestExecutionReportForUnknownAccountSkipsRefresh(t *testing.T) {
	app, sender, _ := newTestApp()
	app.Signal().Begin()

	app.FromApp(executionReport("O1", "", "NOPE", fixmsg.OrdStatusNew), testSessionID)
	assert.Equal(t, []string{"O1"}, app.Orders())
	assert.True(t, app.Signal().Idle())
	assert.Empty(t, sender.ofType(fixmsg.MsgTypeRequestForPositions))
}

func TestPositionOpenThenClosed(t *testing.T) {
	app, _, _ := newTestApp()
	app.FromApp(positionReport("T1", "A1", fixmsg.PosReqTypePositions, "fix_example_test"), testSessionID)
	require.Equal(t, []string{"T1"}, app.Positions())
	rep, ok := app.PositionReport("T1")
	require.True(t, ok)
	assert.True(t, rep.OpenedBy("FIX_EXAMPLE_TEST"))

	app.FromApp(positionReport("T1", "A1", fixmsg.PosReqTypeTrades, ""), testSessionID)
	assert.Empty(t, app.Positions())
	assert.True(t, app.Signal().Idle())
}

func TestPositionClosedThenOpen(t *testing.T) {
	app, _, _ := newTestApp()
	app.FromApp(positionReport("T1", "A1", fixmsg.PosReqTypeTrades, ""), testSessionID)
	app.FromApp(positionReport("T1", "A1", fixmsg.PosReqTypePositions, ""), testSessionID)
	assert.Equal(t, []string{"T1"}, app.Positions())

	app.ResetPositions()
	assert.Empty(t, app.Positions())
}

func TestPositionReportMissingFieldsStillCompletes(t *testing.T) {
	app, _, metrics := newTestApp()

	app.FromApp(positionReport("T1", "A1", -1, ""), testSessionID)
	assert.True(t, app.Signal().Idle())

	app.Signal().Begin()
	app.FromApp(positionReport("", "A1", fixmsg.PosReqTypePositions, ""), testSessionID)
	assert.True(t, app.Signal().Idle())

	assert.Empty(t, app.Positions())
	assert.Equal(t, uint64(2), metrics.Snapshot().Dropped[fixmsg.KindPositionReport])
}

func TestPositionAck(t *testing.T) {
	app, _, _ := newTestApp()

	app.FromApp(positionAck(fixmsg.PosReqResultValid, 2), testSessionID)
	assert.False(t, app.Signal().Idle())

	app.FromApp(positionAck(fixmsg.PosReqResultValid, 0), testSessionID)
	assert.True(t, app.Signal().Idle())

	app.Signal().Begin()
	app.FromApp(positionAck(2, 0), testSessionID)
	assert.True(t, app.Signal().Idle())
}

func TestBusinessRejectCompletes(t *testing.T) {
	app, _, _ := newTestApp()
	msg := inbound(fixmsg.MsgTypeBusinessMessageReject)
	msg.Body.SetString(tag.RefMsgType, fixmsg.MsgTypeRequestForPositions)
	msg.Body.SetInt(tag.BusinessRejectReason, 3)

	require.Nil(t, app.FromApp(msg, testSessionID))
	assert.True(t, app.Signal().Idle())
}

func TestUnknownMessageIsIgnored(t *testing.T) {
	app, _, metrics := newTestApp()
	require.Nil(t, app.FromApp(inbound("XX"), testSessionID))
	assert.False(t, app.Signal().Idle())
	assert.Equal(t, uint64(1), metrics.Snapshot().Inbound[fixmsg.KindUnknown])
}

func TestPlaceMarketOrder(t *testing.T) {
	app, sender, metrics := newTestApp()
	discover(app, "A1", "EUR/USD")
	sender.reset()

	ticket, err := app.PlaceMarketOrder("A1", enum.SideSell, "EUR/USD")
	require.NoError(t, err)
	assert.False(t, app.Signal().Idle())
	assert.True(t, strings.HasPrefix(ticket.ClOrdID, testSessionID.String()+"-"))

	orders := sender.ofType(fixmsg.MsgTypeNewOrderSingle)
	require.Len(t, orders, 1)
	body := &orders[0].Body
	for tg, want := range map[quickfix.Tag]string{
		tag.ClOrdID:          ticket.ClOrdID,
		tag.Account:          "A1",
		tag.Symbol:           "EUR/USD",
		tag.Side:             fixmsg.SideSell,
		tag.OrdType:          fixmsg.OrdTypeMarket,
		tag.TimeInForce:      fixmsg.TimeInForceGoodTillCancel,
		tag.OrderQty:         "10000",
		tag.SecondaryClOrdID: DefaultMarker,
	} {
		got, ok := fixmsg.String(body, tg)
		require.True(t, ok, "tag %d", tg)
		assert.Equal(t, want, got, "tag %d", tg)
	}
	assert.Equal(t, uint64(1), metrics.Snapshot().OrdersSent)

	app.FromApp(executionReport("O1", ticket.ClOrdID, "A1", fixmsg.OrdStatusFilled), testSessionID)
	rep, err := ticket.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "O1", rep.OrderID)
	assert.True(t, app.Signal().Idle())
	assert.Zero(t, app.Gateway().Pending())
}

func TestPlaceMarketOrderErrors(t *testing.T) {
	app, sender, _ := newTestApp()
	discover(app, "A1", "EUR/USD")
	app.FromApp(marketDataSnapshot("GBP/USD", ""), testSessionID)
	sender.reset()

	_, err := app.PlaceMarketOrder("A1", enum.Side(0), "EUR/USD")
	assert.Error(t, err)
	_, err = app.PlaceMarketOrder("NOPE", enum.SideSell, "EUR/USD")
	assert.Error(t, err)
	_, err = app.PlaceMarketOrder("A1", enum.SideSell, "AUD/USD")
	assert.Error(t, err)
	_, err = app.PlaceMarketOrder("A1", enum.SideSell, "GBP/USD")
	assert.Error(t, err)

	assert.Empty(t, sender.ofType(fixmsg.MsgTypeNewOrderSingle))
	assert.Zero(t, app.Gateway().Pending())
}

func TestRefreshPositions(t *testing.T) {
	app, sender, _ := newTestApp()
	discover(app, "A1")
	sender.reset()

	require.NoError(t, app.RefreshPositions("A1"))
	assert.False(t, app.Signal().Idle())
	assert.Len(t, sender.ofType(fixmsg.MsgTypeRequestForPositions), 1)

	assert.Error(t, app.RefreshPositions("NOPE"))
}

func TestSendWithoutSession(t *testing.T) {
	sender := &captureSender{}
	metrics := obs.NewMetrics()
	app := NewApp(Config{Sender: sender, Metrics: metrics})

	app.OnLogon(testSessionID)
	assert.Empty(t, sender.msgs)
	assert.Equal(t, uint64(1), metrics.Snapshot().SendFailures)

	_, ok := app.SessionID()
	assert.False(t, ok)
}

func TestSendFailureIsDiscarded(t *testing.T) {
	app, sender, metrics := newTestApp()
	sender.err = exception.ErrConnectionClose

	app.OnLogon(testSessionID)
	assert.Equal(t, PhaseAuthenticating, app.Phase())
	assert.Equal(t, uint64(1), metrics.Snapshot().SendFailures)
	assert.Zero(t, metrics.Snapshot().Outbound)
}

func TestJournalRecordsEveryDirection(t *testing.T) {
	queue := bus.NewQueue(8)
	app := NewApp(Config{
		Sender:  &captureSender{},
		Journal: bus.NewJournal(queue, nil),
	})
	app.OnCreate(testSessionID)

	out := inbound(fixmsg.MsgTypeHeartbeat)
	app.ToAdmin(out, testSessionID)
	require.NoError(t, app.ToApp(inbound(fixmsg.MsgTypeNewOrderSingle), testSessionID))
	app.FromAdmin(inbound(fixmsg.MsgTypeHeartbeat), testSessionID)
	app.FromApp(userResponse(2), testSessionID)
	queue.Close()

	var kinds []enum.EventKind
	var seqs []uint64
	queue.Run(context.Background(), func(e bus.Event) {
		kinds = append(kinds, e.Header.Kind)
		seqs = append(seqs, e.Header.Seq)
	})
	assert.Equal(t, []enum.EventKind{
		enum.EventOutboundAdmin,
		enum.EventOutboundApp,
		enum.EventInboundAdmin,
		enum.EventInboundApp,
	}, kinds)
	assert.Equal(t, []uint64{1, 2, 3, 4}, seqs)
}

func TestLogFactoryPrintable(t *testing.T) {
	assert.Equal(t, "8=FIX.4.4|35=0|", printable([]byte("8=FIX.4.4\x0135=0\x01")))

	log, err := NewLogFactory().CreateSessionLog(testSessionID)
	require.NoError(t, err)
	log.OnEventf("connected %d", 1)
}
