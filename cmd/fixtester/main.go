package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"fixharness/internal/bus"
	"fixharness/internal/obs"
	"fixharness/internal/ops"
	"fixharness/internal/reconcile"
	"fixharness/internal/recorder"
	"fixharness/internal/risk"
	"fixharness/internal/session"
	"fixharness/internal/store"
	"fixharness/internal/workflow"
	"fixharness/pkg/conn"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/quickfixgo/quickfix"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const (
	startupDelay     = 5 * time.Second
	journalQueueSize = 8192
)

func main() {
	envFile := flag.String("env", "", "Optional .env file with FIX_USERNAME, FIX_PASSWORD, FIX_PIN")
	logMessages := flag.Bool("log-messages", false, "Log every FIX message at debug level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <settings.cfg>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Error: Supply configuration file")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *envFile, *logMessages); err != nil {
		logs.Errorf("fixtester, err: %+v", err)
		os.Exit(1)
	}
}

func run(settingsPath, envFile string, logMessages bool) error {
	cfg, err := ops.Load(settingsPath, envFile)
	if err != nil {
		return err
	}

	if cfg.PyroscopeServer != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "fixharness.fixtester",
			ServerAddress:   cfg.PyroscopeServer,
			Logger:          pyroscopeLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
				pyroscope.ProfileGoroutines,
			},
		})
		if err != nil {
			return err
		}
		defer func() { _ = profiler.Stop() }()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := obs.NewMetrics()
	var journal *bus.Journal
	journalDone := make(chan error, 1)
	if cfg.JournalDir != "" {
		writer, err := recorder.NewWriter(recorder.DefaultConfig(cfg.JournalDir))
		if err != nil {
			return err
		}
		queue := bus.NewQueue(journalQueueSize)
		journal = bus.NewJournal(queue, metrics)
		go func() { journalDone <- writer.Consume(context.Background(), queue) }()
		defer func() {
			queue.Close()
			if err := <-journalDone; err != nil {
				logs.Errorf("journal, err: %+v", err)
			}
		}()
	}

	app := session.NewApp(session.Config{
		Credentials: cfg.Credentials,
		Marker:      cfg.Workflow.Marker,
		Journal:     journal,
		Metrics:     metrics,
	})

	opts := []workflow.Option{
		workflow.WithRisk(risk.NewEngine(cfg.Risk)),
		workflow.WithMetrics(metrics),
	}
	if cfg.SnapshotPath != "" {
		opts = append(opts, workflow.WithReporter(workflow.ReporterFunc(func(context.Context, workflow.Report) error {
			return store.WriteSnapshot(cfg.SnapshotPath, app.Store().Snapshot())
		})))
	}
	if cfg.PostgresDSN != "" {
		client, err := conn.New(conn.Option{ConnString: cfg.PostgresDSN})
		if err != nil {
			return err
		}
		defer client.Close()
		repo, err := reconcile.NewRepository(client.DB())
		if err != nil {
			return err
		}
		if err := repo.Migrate(ctx); err != nil {
			return err
		}
		opts = append(opts, workflow.WithReporter(repo))
	}
	driver := workflow.NewDriver(app, cfg.Workflow, opts...)

	logFactory := session.NewLogFactory()
	logFactory.Messages = logMessages
	initiator, err := quickfix.NewInitiator(app, quickfix.NewMemoryStoreFactory(), cfg.Settings, logFactory)
	if err != nil {
		return err
	}
	if err := initiator.Start(); err != nil {
		return err
	}
	defer initiator.Stop()

	prompt(ctx, driver)

	logs.Infof("metrics: %+v", metrics.Snapshot())
	return nil
}

// prompt runs a cycle for every "t" line and returns on any other input, on
// end of input or on shutdown.
func prompt(ctx context.Context, driver *workflow.Driver) {
	fmt.Println("Enter 't' to trade, all else to quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	select {
	case <-sys.Shutdown():
		return
	case <-time.After(startupDelay):
	}

	for {
		select {
		case <-sys.Shutdown():
			return
		case line, ok := <-lines:
			if !ok || !strings.EqualFold(strings.TrimSpace(line), "t") {
				return
			}
			runCycle(ctx, driver)
		}
	}
}

func runCycle(ctx context.Context, driver *workflow.Driver) {
	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan workflow.Report, 1)
	go func() { done <- driver.Run(cycleCtx) }()

	select {
	case report := <-done:
		logs.Infof("cycle %s: sent %d, denied %d, tickets %d, offsets %d",
			report.ID, report.OrdersSent, report.OrdersDenied, report.Tickets, len(report.Offsets))
	case <-sys.Shutdown():
		cancel()
		<-done
	}
}

type pyroscopeLogger struct{}

func (pyroscopeLogger) Infof(format string, args ...interface{})  { logs.Debugf(format, args...) }
func (pyroscopeLogger) Debugf(format string, args ...interface{}) { logs.Debugf(format, args...) }
func (pyroscopeLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }
