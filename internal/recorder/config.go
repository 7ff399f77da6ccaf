package recorder

import (
	"time"

	"fixharness/pkg/exception"

	"github.com/yanun0323/errors"
)

const (
	defaultSegmentMaxBytes int64 = 64 << 20
	defaultBufferSize            = 64 * 1024
	defaultFilePrefix            = "fixj"
	segmentSuffix                = ".journal"
)

var defaultSegmentMaxDuration = time.Hour

// Config controls journal writer behavior.
type Config struct {
	Dir                string
	SegmentMaxBytes    int64
	SegmentMaxDuration time.Duration
	BufferSize         int
	FilePrefix         string
	FlushInterval      time.Duration
}

// DefaultConfig returns a baseline configuration for the journal writer.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:                dir,
		SegmentMaxBytes:    defaultSegmentMaxBytes,
		SegmentMaxDuration: defaultSegmentMaxDuration,
		BufferSize:         defaultBufferSize,
		FilePrefix:         defaultFilePrefix,
		FlushInterval:      time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.SegmentMaxBytes == 0 {
		c.SegmentMaxBytes = defaultSegmentMaxBytes
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.Dir == "":
		return errors.Wrap(exception.ErrInvalidSetting, "journal Dir is empty")
	case c.SegmentMaxBytes <= 0:
		return errors.Wrap(exception.ErrInvalidSetting, "journal SegmentMaxBytes must be > 0")
	case c.BufferSize <= 0:
		return errors.Wrap(exception.ErrInvalidSetting, "journal BufferSize must be > 0")
	case c.FilePrefix == "":
		return errors.Wrap(exception.ErrInvalidSetting, "journal FilePrefix is empty")
	case c.FlushInterval < 0:
		return errors.Wrap(exception.ErrInvalidSetting, "journal FlushInterval must be >= 0")
	}
	return nil
}
