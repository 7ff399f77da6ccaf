package fixmsg

import (
	"testing"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"

	"fixharness/pkg/exception"
)

func TestFieldsSkipsMalformedPairs(t *testing.T) {
	raw := "8=FIX.4.4\x0135=h\x01bad\x01x=1\x01146=2\x0155=EUR/USD\x01"
	fields := Fields(raw)
	require.Len(t, fields, 4)
	assert.Equal(t, Field{Tag: 35, Value: "h"}, fields[1])
	assert.Equal(t, Field{Tag: 55, Value: "EUR/USD"}, fields[3])
}

func TestGroupValuesBoundedByCount(t *testing.T) {
	raw := "35=h\x01146=2\x0155=EUR/USD\x0155=USD/JPY\x0155=GBP/USD\x01"
	symbols, n := GroupValues(Fields(raw), tag.NoRelatedSym, tag.Symbol)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"EUR/USD", "USD/JPY"}, symbols)
}

func TestGroupValuesShortGroupKeepsAdvertisedCount(t *testing.T) {
	raw := "35=h\x01146=3\x0155=EUR/USD\x01"
	symbols, n := GroupValues(Fields(raw), tag.NoRelatedSym, tag.Symbol)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"EUR/USD"}, symbols)
}

func TestGroupValuesMissingCount(t *testing.T) {
	symbols, n := GroupValues(Fields("35=h\x0155=EUR/USD\x01"), tag.NoRelatedSym, tag.Symbol)
	assert.Zero(t, n)
	assert.Empty(t, symbols)
}

func TestPartiesFromMessage(t *testing.T) {
	msg := quickfix.NewMessage()
	msg.Header.SetString(tag.MsgType, MsgTypeCollateralReport)
	msg.Body.SetString(tag.Account, "01234567")

	subs := quickfix.NewRepeatingGroup(tag.NoPartySubIDs, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.PartySubID),
		quickfix.GroupElement(tag.PartySubIDType),
	})
	sub := subs.Add()
	sub.SetString(tag.PartySubID, "32")
	sub.SetInt(tag.PartySubIDType, 26)

	parties := quickfix.NewRepeatingGroup(tag.NoPartyIDs, quickfix.GroupTemplate{
		quickfix.GroupElement(tag.PartyID),
		quickfix.GroupElement(tag.PartyIDSource),
		quickfix.GroupElement(tag.PartyRole),
		subs,
	})
	p := parties.Add()
	p.SetString(tag.PartyID, "FXCM ID")
	p.SetString(tag.PartyIDSource, "D")
	p.SetInt(tag.PartyRole, 3)
	p.SetGroup(subs)
	msg.Body.SetGroup(parties)

	got := Parties(FieldsOf(msg))
	require.Len(t, got, 1)
	assert.Equal(t, "FXCM ID", got[0].ID)
	assert.Equal(t, "D", got[0].Source)
	assert.Equal(t, 3, got[0].Role)
	assert.Equal(t, []PartySubID{{ID: "32", Type: 26}}, got[0].SubIDs)
}

func TestMDEntries(t *testing.T) {
	raw := "35=W\x0155=EUR/USD\x01268=4\x01269=0\x01270=1.1\x01269=1\x01270=1.2\x01269=7\x01270=1.3\x01269=8\x01270=1.0\x01"
	entries := MDEntries(Fields(raw))
	assert.Equal(t, []MDEntry{
		{Type: MDEntryTypeBid, Price: "1.1"},
		{Type: MDEntryTypeOffer, Price: "1.2"},
		{Type: MDEntryTypeSessionHigh, Price: "1.3"},
		{Type: MDEntryTypeSessionLow, Price: "1.0"},
	}, entries)
}

func TestOptionalAccessors(t *testing.T) {
	msg := quickfix.NewMessage()
	msg.Body.SetString(tag.LastRptRequested, "Y")
	msg.Body.SetString(tag.PosReqType, "1")
	msg.Body.SetString(TagFXCMMinQuantity, "0.1")
	msg.Body.SetString(tag.Text, "abc")

	last, ok := Bool(&msg.Body, tag.LastRptRequested)
	assert.True(t, ok)
	assert.True(t, last)

	typ, ok := Int(&msg.Body, tag.PosReqType)
	assert.True(t, ok)
	assert.Equal(t, PosReqTypeTrades, typ)

	qty, ok := Decimal(&msg.Body, TagFXCMMinQuantity)
	assert.True(t, ok)
	assert.Equal(t, "0.1", qty.String())

	_, ok = Int(&msg.Body, tag.Text)
	assert.False(t, ok)

	_, ok = String(&msg.Body, tag.Account)
	assert.False(t, ok)
}

func TestRequireAccessors(t *testing.T) {
	msg := quickfix.NewMessage()
	msg.Body.SetString(tag.PosReqType, "x")

	_, err := RequireString(&msg.Body, tag.Account)
	require.True(t, errors.Is(err, exception.ErrFieldNotFound), "%v", err)

	_, err = RequireInt(&msg.Body, tag.PosReqType)
	require.True(t, errors.Is(err, exception.ErrFieldMalformed), "%v", err)

	_, err = RequireInt(&msg.Body, tag.UserStatus)
	require.True(t, errors.Is(err, exception.ErrFieldNotFound), "%v", err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindExecutionReport, KindOf(MsgTypeExecutionReport))
	assert.Equal(t, KindPositionAck, KindOf(MsgTypeRequestForPositionsAck))
	assert.Equal(t, KindAdmin, KindOf(MsgTypeHeartbeat))
	assert.Equal(t, KindUnknown, KindOf("ZZ"))
	assert.Equal(t, "position_report", KindPositionReport.String())
}
