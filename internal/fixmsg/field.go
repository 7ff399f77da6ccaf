package fixmsg

import (
	"strconv"
	"strings"
	"time"

	"fixharness/pkg/exception"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// FieldReader is satisfied by the header, body and trailer of a quickfix.Message.
type FieldReader interface {
	Has(tag quickfix.Tag) bool
	GetString(tag quickfix.Tag) (string, quickfix.MessageRejectError)
}

// String returns the field value, reporting false when the field is absent.
func String(r FieldReader, tag quickfix.Tag) (string, bool) {
	if !r.Has(tag) {
		return "", false
	}
	v, err := r.GetString(tag)
	if err != nil {
		return "", false
	}
	return v, true
}

// Int returns the field as an int. A present but malformed value reports false.
func Int(r FieldReader, tag quickfix.Tag) (int, bool) {
	v, ok := String(r, tag)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool reads a FIX boolean (Y/N).
func Bool(r FieldReader, tag quickfix.Tag) (bool, bool) {
	v, ok := String(r, tag)
	if !ok {
		return false, false
	}
	switch strings.ToUpper(v) {
	case "Y":
		return true, true
	case "N":
		return false, true
	default:
		return false, false
	}
}

// Decimal reads a FIX float field.
func Decimal(r FieldReader, tag quickfix.Tag) (decimal.Decimal, bool) {
	v, ok := String(r, tag)
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Time reads a UTCTimestamp field, with or without milliseconds.
func Time(r FieldReader, tag quickfix.Tag) (time.Time, bool) {
	v, ok := String(r, tag)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{LayoutUTCTimestamp, "20060102-15:04:05"} {
		if ts, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// RequireString is String for mandatory fields.
func RequireString(r FieldReader, tag quickfix.Tag) (string, error) {
	v, ok := String(r, tag)
	if !ok || len(v) == 0 {
		return "", errors.Wrapf(exception.ErrFieldNotFound, "tag %d", int(tag))
	}
	return v, nil
}

// RequireInt is Int for mandatory fields.
func RequireInt(r FieldReader, tag quickfix.Tag) (int, error) {
	if !r.Has(tag) {
		return 0, errors.Wrapf(exception.ErrFieldNotFound, "tag %d", int(tag))
	}
	n, ok := Int(r, tag)
	if !ok {
		return 0, errors.Wrapf(exception.ErrFieldMalformed, "tag %d", int(tag))
	}
	return n, nil
}

// MsgType returns the MsgType header field.
func MsgType(msg *quickfix.Message) string {
	v, _ := String(&msg.Header, tag.MsgType)
	return v
}
