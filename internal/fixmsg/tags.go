package fixmsg

import "github.com/quickfixgo/quickfix"

// Venue specific tags.
const (
	TagFXCMNoParam     quickfix.Tag = 9016
	TagFXCMParamName   quickfix.Tag = 9017
	TagFXCMParamValue  quickfix.Tag = 9018
	TagFXCMPosID       quickfix.Tag = 9041
	TagFXCMMinQuantity quickfix.Tag = 9095
)

// ParamNamePin names the PIN entry in the user request parameter group.
const ParamNamePin = "PIN"

// UserRequestType values.
const (
	// UserRequestTypeListTradingSessions is the venue's logon user request.
	UserRequestTypeListTradingSessions = 5
)

// UserStatus values.
const (
	UserStatusLoggedIn = 1
)

// PosReqType values.
const (
	PosReqTypePositions = 0
	PosReqTypeTrades    = 1
)

// PosReqResult values.
const (
	PosReqResultValid = 0
)

// SubscriptionRequestType values.
const (
	SubscriptionSnapshot        = 0
	SubscriptionSnapshotUpdates = 1
)

// MDUpdateType values.
const (
	MDUpdateTypeFullRefresh = 0
)

// MDEntryType values.
const (
	MDEntryTypeBid         = "0"
	MDEntryTypeOffer       = "1"
	MDEntryTypeSessionHigh = "7"
	MDEntryTypeSessionLow  = "8"
)

// AccountType values.
const (
	// AccountTypeNonCustomerCrossMargined is the venue default.
	AccountTypeNonCustomerCrossMargined = 6
)

// Side values.
const (
	SideBuy  = "1"
	SideSell = "2"
)

// OrdType values.
const (
	OrdTypeMarket = "1"
)

// TimeInForce values.
const (
	TimeInForceGoodTillCancel = "1"
)

// OrdStatus values.
const (
	OrdStatusNew             = "0"
	OrdStatusPartiallyFilled = "1"
	OrdStatusFilled          = "2"
	OrdStatusDoneForDay      = "3"
	OrdStatusCanceled        = "4"
	OrdStatusPendingCancel   = "6"
	OrdStatusStopped         = "7"
	OrdStatusRejected        = "8"
	OrdStatusCalculated      = "B"
	OrdStatusExpired         = "C"
	OrdStatusPendingNew      = "A"
)

// Timestamp layouts.
const (
	LayoutUTCTimestamp = "20060102-15:04:05.000"
	LayoutLocalDate    = "20060102"
)
