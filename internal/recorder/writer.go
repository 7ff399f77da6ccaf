package recorder

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fixharness/internal/bus"
	"fixharness/internal/model"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

// Writer appends journal records to rotating segment files. It is owned by a
// single goroutine, normally the one running Consume.
type Writer struct {
	cfg Config
	now func() time.Time

	seg         *segmentWriter
	segID       uint64
	headerBuf   []byte
	checksumBuf [recordChecksumSize]byte
	lastFlush   time.Time
	closed      bool
	written     uint64
}

// NewWriter creates a journal writer and ensures the target directory exists.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create journal dir")
	}
	return &Writer{
		cfg:       cfg,
		now:       time.Now,
		headerBuf: make([]byte, recordHeaderSize),
	}, nil
}

// Consume appends every event of q until q is closed or ctx ends, then closes
// the writer.
func (w *Writer) Consume(ctx context.Context, q *bus.Queue) error {
	var firstErr error
	q.Run(ctx, func(e bus.Event) {
		if firstErr != nil {
			return
		}
		if err := w.Append(e.Header, e.Payload); err != nil {
			firstErr = err
			logs.Errorf("append journal record, seq: %d, err: %+v", e.Header.Seq, err)
		}
	})
	if err := w.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Append writes one record, rotating the segment when needed.
func (w *Writer) Append(header model.EventHeader, payload []byte) error {
	if w.closed {
		return ErrClosed
	}
	if len(payload) > maxPayloadLen {
		return ErrPayloadTooLarge
	}

	now := w.now().UTC()
	recordSize := int64(recordHeaderSize + len(payload) + recordChecksumSize)
	if w.shouldRotate(now, recordSize) {
		if err := w.closeSegment(); err != nil {
			return err
		}
		if err := w.openSegment(now); err != nil {
			return err
		}
	}

	encodeHeader(w.headerBuf, header, len(payload))
	binary.LittleEndian.PutUint32(w.checksumBuf[:], checksum(w.headerBuf, payload))

	buf := w.seg.buf
	if _, err := buf.Write(w.headerBuf); err != nil {
		return err
	}
	if _, err := buf.Write(payload); err != nil {
		return err
	}
	if _, err := buf.Write(w.checksumBuf[:]); err != nil {
		return err
	}
	w.seg.size += recordSize
	w.written++

	if w.cfg.FlushInterval > 0 && now.Sub(w.lastFlush) >= w.cfg.FlushInterval {
		w.lastFlush = now
		return buf.Flush()
	}
	return nil
}

// Written returns the number of records appended.
func (w *Writer) Written() uint64 {
	return w.written
}

// Close flushes, syncs and closes the open segment.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.closeSegment()
}

func (w *Writer) shouldRotate(now time.Time, nextSize int64) bool {
	if w.seg == nil {
		return true
	}
	if w.cfg.SegmentMaxBytes > 0 && w.seg.size > 0 && w.seg.size+nextSize > w.cfg.SegmentMaxBytes {
		return true
	}
	if w.cfg.SegmentMaxDuration > 0 && now.Sub(w.seg.openedAt) >= w.cfg.SegmentMaxDuration {
		return true
	}
	return false
}

func (w *Writer) closeSegment() error {
	seg := w.seg
	if seg == nil {
		return nil
	}
	w.seg = nil
	if err := seg.buf.Flush(); err != nil {
		_ = seg.file.Close()
		return err
	}
	if err := seg.file.Sync(); err != nil {
		_ = seg.file.Close()
		return err
	}
	return seg.file.Close()
}

func (w *Writer) openSegment(now time.Time) error {
	ts := now.Format("20060102-150405")
	for {
		w.segID++
		name := fmt.Sprintf("%s-%s-%06d%s", w.cfg.FilePrefix, ts, w.segID, segmentSuffix)
		file, err := os.OpenFile(filepath.Join(w.cfg.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return errors.Wrap(err, "open journal segment")
		}
		w.seg = &segmentWriter{
			file:     file,
			buf:      bufio.NewWriterSize(file, w.cfg.BufferSize),
			openedAt: now,
		}
		w.lastFlush = now
		return nil
	}
}

type segmentWriter struct {
	file     *os.File
	buf      *bufio.Writer
	size     int64
	openedAt time.Time
}
