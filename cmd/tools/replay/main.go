package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"

	"fixharness/internal/model"
	"fixharness/internal/model/enum"
	"fixharness/internal/obs"
	"fixharness/internal/recorder"
	"fixharness/internal/session"
	"fixharness/internal/store"

	"github.com/quickfixgo/quickfix"
)

func main() {
	dir := flag.String("dir", "testdata/journal", "Journal directory")
	prefix := flag.String("prefix", "", "Journal file prefix (default: fixj)")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	snapshotPath := flag.String("snapshot", "", "Write the rebuilt store to this JSON file")
	verbose := flag.Bool("v", false, "Print every replayed record")
	flag.Parse()

	pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		Kinds:           []enum.EventKind{enum.EventInboundApp, enum.EventInboundAdmin},
		Speed:           *speed,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	})
	if err != nil {
		log.Fatalf("playback init failed: %v", err)
	}

	metrics := obs.NewMetrics()
	app := session.NewApp(session.Config{Sender: session.DiscardSender, Metrics: metrics})
	sessionID := quickfix.SessionID{BeginString: quickfix.BeginStringFIX44, SenderCompID: "REPLAY", TargetCompID: "VENUE"}
	app.OnCreate(sessionID)

	var index, malformed int
	err = pb.Run(context.Background(), func(header model.EventHeader, payload []byte) error {
		index++
		msg := quickfix.NewMessage()
		if err := quickfix.ParseMessage(msg, bytes.NewBuffer(payload)); err != nil {
			malformed++
			fmt.Printf("%06d seq=%d kind=%s malformed: %v\n", index, header.Seq, header.Kind, err)
			return nil
		}
		if *verbose {
			msgType, _ := msg.MsgType()
			fmt.Printf("%06d seq=%d kind=%s msg_type=%s len=%d\n", index, header.Seq, header.Kind, msgType, len(payload))
		}
		if header.Kind == enum.EventInboundAdmin {
			app.FromAdmin(msg, sessionID)
		} else {
			app.FromApp(msg, sessionID)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("playback run failed: %v", err)
	}

	snapshot := app.Store().Snapshot()
	fmt.Printf("replayed %d records (%d malformed): %d accounts, %d instruments, %d orders, %d positions\n",
		index, malformed, len(snapshot.Accounts), len(snapshot.Instruments), len(snapshot.Orders), len(snapshot.Positions))
	fmt.Printf("metrics: %+v\n", metrics.Snapshot())

	if *snapshotPath != "" {
		if err := store.WriteSnapshot(*snapshotPath, snapshot); err != nil {
			log.Fatalf("write snapshot failed: %v", err)
		}
	}
}
