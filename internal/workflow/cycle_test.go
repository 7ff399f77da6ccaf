package workflow

import (
	"context"
	"testing"
	"time"

	"fixharness/internal/chaos"
	"fixharness/internal/fixmsg"
	"fixharness/internal/session"
	"fixharness/internal/venuesim"

	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simConfig() venuesim.Config {
	return venuesim.Config{
		Username: "trader",
		Password: "secret",
		Accounts: []venuesim.AccountSpec{
			{ID: "ACC-1", Positions: []venuesim.PositionSpec{{Ticket: "FOREIGN-1", Symbol: "USD/JPY", Marker: "manual"}}},
			{ID: "ACC-2", Positions: []venuesim.PositionSpec{{Ticket: "FOREIGN-2", Symbol: "EUR/USD"}}},
		},
		Instruments: []venuesim.InstrumentSpec{
			{Symbol: "EUR/USD", MinQuantity: decimal.NewFromInt(1), Bid: decimal.RequireFromString("1.0850"), Offer: decimal.RequireFromString("1.0852")},
			{Symbol: "USD/JPY", MinQuantity: decimal.NewFromInt(1), Bid: decimal.RequireFromString("151.20"), Offer: decimal.RequireFromString("151.23")},
			{Symbol: "USDOLLAR", MinQuantity: decimal.NewFromInt(1), Bid: decimal.RequireFromString("12000"), Offer: decimal.RequireFromString("12001")},
		},
		OpenOn: []string{"EUR/USD"},
	}
}

func startSimulated(t *testing.T, cfg venuesim.Config) (context.Context, *venuesim.Simulator, *session.App) {
	t.Helper()
	sim, err := venuesim.New(cfg)
	require.NoError(t, err)

	app := session.NewApp(session.Config{
		Credentials: session.Credentials{Username: "trader", Password: "secret"},
		Sender:      sim,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sim.Run(ctx)
	sim.Attach(app, quickfix.SessionID{BeginString: quickfix.BeginStringFIX44, SenderCompID: "HARNESS", TargetCompID: "FXCM"})
	return ctx, sim, app
}

func simulatedDriver(app *session.App) *Driver {
	return NewDriver(app, Config{
		Marker:           app.Marker(),
		SettleInterval:   20 * time.Millisecond,
		StepTimeout:      2 * time.Second,
		ProgressInterval: 5 * time.Millisecond,
	})
}

func TestCycleAgainstSimulatedVenue(t *testing.T) {
	ctx, sim, app := startSimulated(t, simConfig())

	require.Eventually(t, func() bool {
		return len(app.Instruments()) == 3 && len(app.Accounts()) == 2 && app.Signal().Idle()
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, session.PhaseMarketDataSubscribed, app.Phase())

	report := simulatedDriver(app).Run(ctx)
	require.False(t, report.Failed(), report.Err)

	assert.Equal(t, 2, report.Accounts)
	assert.Equal(t, 3, report.Instruments)
	assert.Equal(t, 4, report.Tickets)
	require.Len(t, report.Offsets, 2)
	assert.Equal(t, 8, report.OrdersSent)

	fills := sim.Fills()
	require.Len(t, fills, 8)
	for _, f := range fills[:6] {
		assert.Equal(t, fixmsg.SideSell, f.Side)
		assert.Equal(t, app.Marker(), f.Marker)
	}
	for _, f := range fills[6:] {
		assert.Equal(t, fixmsg.SideBuy, f.Side)
		assert.Equal(t, "EUR/USD", f.Symbol)
		assert.True(t, decimal.NewFromInt(10000).Equal(f.Qty))
	}
	assert.ElementsMatch(t, []string{"ACC-1", "ACC-2"}, []string{fills[6].Account, fills[7].Account})
	for _, f := range fills {
		if f.Symbol == "USDOLLAR" {
			assert.True(t, decimal.NewFromInt(1).Equal(f.Qty))
		}
	}

	assert.Equal(t, []string{"FOREIGN-1"}, sim.OpenTickets("ACC-1"))
	assert.Equal(t, []string{"FOREIGN-2"}, sim.OpenTickets("ACC-2"))
	require.Eventually(t, func() bool {
		positions := app.Positions()
		return len(positions) == 2 && positions[0] == "FOREIGN-1" && positions[1] == "FOREIGN-2"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCycleWithDuplicatedReplies(t *testing.T) {
	cfg := simConfig()
	cfg.Chaos = chaos.Config{Seed: 1, DuplicateRate: 1}
	ctx, sim, app := startSimulated(t, cfg)

	require.Eventually(t, func() bool {
		return len(app.Instruments()) == 3 && app.Signal().Idle()
	}, 2*time.Second, 5*time.Millisecond)

	report := simulatedDriver(app).Run(ctx)
	require.False(t, report.Failed(), report.Err)
	assert.Len(t, report.Offsets, 2)
	assert.Len(t, sim.Fills(), 8)
	assert.Len(t, app.Orders(), 8)
}

func TestCycleAbandonedWhenVenueIsSilent(t *testing.T) {
	cfg := simConfig()
	cfg.Chaos = chaos.Config{Seed: 1, DropRate: 1}
	ctx, sim, app := startSimulated(t, cfg)

	d := NewDriver(app, Config{Marker: app.Marker(), StepTimeout: 50 * time.Millisecond})
	report := d.Run(ctx)
	assert.True(t, report.Failed())
	assert.Empty(t, sim.Fills())
	assert.Equal(t, session.PhaseAuthenticating, app.Phase())
}
