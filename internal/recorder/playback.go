package recorder

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fixharness/internal/model"
	"fixharness/internal/model/enum"
	"fixharness/pkg/exception"

	"github.com/yanun0323/errors"
)

// PlaybackConfig controls journal playback behavior.
type PlaybackConfig struct {
	Dir        string
	FilePrefix string
	// Kinds limits playback to the listed kinds; empty plays everything.
	Kinds []enum.EventKind
	// Speed paces records by their receive time; 0 plays as fast as possible.
	Speed           float64
	DisableChecksum bool
	MaxPayloadSize  int
}

// Clock allows deterministic playback control.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Handler receives each played record. The payload is only valid during the call.
type Handler func(model.EventHeader, []byte) error

// Playback replays journal records in file order.
type Playback struct {
	cfg   PlaybackConfig
	clock Clock
	kinds map[enum.EventKind]struct{}
}

// NewPlayback validates the config and creates a playback engine.
func NewPlayback(cfg PlaybackConfig) (*Playback, error) {
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = defaultFilePrefix
	}
	switch {
	case cfg.Dir == "":
		return nil, errors.Wrap(exception.ErrInvalidSetting, "playback Dir is empty")
	case cfg.Speed < 0:
		return nil, errors.Wrap(exception.ErrInvalidSetting, "playback Speed must be >= 0")
	case cfg.MaxPayloadSize < 0:
		return nil, errors.Wrap(exception.ErrInvalidSetting, "playback MaxPayloadSize must be >= 0")
	}

	p := &Playback{cfg: cfg, clock: realClock{}}
	if len(cfg.Kinds) > 0 {
		p.kinds = make(map[enum.EventKind]struct{}, len(cfg.Kinds))
		for _, k := range cfg.Kinds {
			p.kinds[k] = struct{}{}
		}
	}
	return p, nil
}

// WithClock swaps the clock implementation.
func (p *Playback) WithClock(clock Clock) *Playback {
	if clock != nil {
		p.clock = clock
	}
	return p
}

// Run replays journal records and calls handler for each selected one.
func (p *Playback) Run(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.Wrap(exception.ErrNilInstance, "playback handler")
	}
	files, err := p.collectFiles()
	if err != nil {
		return err
	}

	var prevTS int64
	for _, path := range files {
		if err := p.playFile(ctx, path, handler, &prevTS); err != nil {
			return err
		}
	}
	return nil
}

func (p *Playback) collectFiles() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "read journal dir")
	}
	prefix := p.cfg.FilePrefix + "-"
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, segmentSuffix) {
			continue
		}
		files = append(files, filepath.Join(p.cfg.Dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func (p *Playback) playFile(ctx context.Context, path string, handler Handler, prevTS *int64) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := NewReader(file, ReaderOptions{
		DisableChecksum: p.cfg.DisableChecksum,
		MaxPayloadSize:  p.cfg.MaxPayloadSize,
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, payload, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrapf(err, "read %s", path)
		}
		if p.kinds != nil {
			if _, ok := p.kinds[header.Kind]; !ok {
				continue
			}
		}

		if err := p.pace(ctx, header, prevTS); err != nil {
			return err
		}
		if err := handler(header, payload); err != nil {
			return err
		}
	}
}

func (p *Playback) pace(ctx context.Context, header model.EventHeader, prevTS *int64) error {
	if p.cfg.Speed <= 0 || header.TsRecv <= 0 {
		return nil
	}
	if *prevTS > 0 {
		if delta := header.TsRecv - *prevTS; delta > 0 {
			if err := p.clock.Sleep(ctx, time.Duration(float64(delta)/p.cfg.Speed)); err != nil {
				return err
			}
		}
	}
	*prevTS = header.TsRecv
	return nil
}
