package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"fixharness/internal/bus"
	"fixharness/internal/chaos"
	"fixharness/internal/obs"
	"fixharness/internal/recorder"
	"fixharness/internal/risk"
	"fixharness/internal/session"
	"fixharness/internal/venuesim"
	"fixharness/internal/workflow"

	"github.com/bytedance/sonic"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
)

// paper runs one trading cycle against the in-process venue simulator.
func main() {
	accounts := flag.String("accounts", "PAPER-1,PAPER-2", "Comma separated account ids")
	symbols := flag.String("symbols", "EUR/USD=1:1.0850:1.0852,USD/JPY=1:151.20:151.23,USDOLLAR=1:12000:12001",
		"Comma separated SYMBOL=MINQTY:BID:OFFER")
	openOn := flag.String("open-on", "EUR/USD", "Comma separated symbols on which a sell opens a position")
	journalDir := flag.String("journal-dir", "", "Journal directory (empty=disabled)")
	dropRate := flag.Float64("drop-rate", 0, "Probability a venue reply is lost")
	dupRate := flag.Float64("dup-rate", 0, "Probability a venue reply is delivered twice")
	reorder := flag.Int("reorder-window", 0, "Venue replies shuffled within this window (0=in order)")
	maxNotional := flag.String("max-notional", "0", "Risk max order notional (0=unlimited)")
	timeout := flag.Duration("timeout", 10*time.Second, "Overall timeout")
	flag.Parse()

	instruments, err := parseInstruments(*symbols)
	if err != nil {
		log.Fatalf("invalid symbols: %v", err)
	}
	notional, err := decimal.NewFromString(*maxNotional)
	if err != nil {
		log.Fatalf("invalid max-notional: %v", err)
	}

	cfg := venuesim.Config{Username: "paper", Password: "paper", Instruments: instruments, OpenOn: splitList(*openOn)}
	cfg.Chaos = chaos.Config{DropRate: *dropRate, DuplicateRate: *dupRate, ReorderWindow: *reorder}
	for _, id := range splitList(*accounts) {
		cfg.Accounts = append(cfg.Accounts, venuesim.AccountSpec{ID: id})
	}
	sim, err := venuesim.New(cfg)
	if err != nil {
		log.Fatalf("simulator init failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	metrics := obs.NewMetrics()
	var journal *bus.Journal
	var journalDone chan error
	var queue *bus.Queue
	if *journalDir != "" {
		writer, err := recorder.NewWriter(recorder.DefaultConfig(*journalDir))
		if err != nil {
			log.Fatalf("journal init failed: %v", err)
		}
		queue = bus.NewQueue(4096)
		journal = bus.NewJournal(queue, metrics)
		journalDone = make(chan error, 1)
		go func() { journalDone <- writer.Consume(context.Background(), queue) }()
	}

	app := session.NewApp(session.Config{
		Credentials: session.Credentials{Username: "paper", Password: "paper"},
		Sender:      sim,
		Journal:     journal,
		Metrics:     metrics,
	})
	go sim.Run(ctx)
	sim.Attach(app, quickfix.SessionID{BeginString: quickfix.BeginStringFIX44, SenderCompID: "PAPER", TargetCompID: "SIM"})

	// The cycle trades whatever was discovered, so let market data land first.
	for len(app.Instruments()) < len(instruments) && ctx.Err() == nil {
		time.Sleep(10 * time.Millisecond)
	}

	driver := workflow.NewDriver(app, workflow.Config{
		Marker:         app.Marker(),
		SettleInterval: 100 * time.Millisecond,
		StepTimeout:    2 * time.Second,
	},
		workflow.WithRisk(risk.NewEngine(risk.Config{MaxOrderNotional: notional})),
		workflow.WithMetrics(metrics),
	)
	report := driver.Run(ctx)

	if queue != nil {
		queue.Close()
		if err := <-journalDone; err != nil {
			log.Printf("journal failed: %v", err)
		}
	}

	out, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encode report failed: %v", err)
	}
	fmt.Println(string(out))
	fmt.Printf("fills: %d, metrics: %+v\n", len(sim.Fills()), metrics.Snapshot())
	if report.Failed() {
		log.Fatalf("cycle failed: %s", report.Err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInstruments(s string) ([]venuesim.InstrumentSpec, error) {
	var out []venuesim.InstrumentSpec
	for _, item := range splitList(s) {
		symbol, spec, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("missing '=' in %q", item)
		}
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("want MINQTY:BID:OFFER in %q", item)
		}
		values := make([]decimal.Decimal, 3)
		for i, p := range parts {
			d, err := decimal.NewFromString(p)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", item, err)
			}
			values[i] = d
		}
		out = append(out, venuesim.InstrumentSpec{Symbol: symbol, MinQuantity: values[0], Bid: values[1], Offer: values[2]})
	}
	return out, nil
}
