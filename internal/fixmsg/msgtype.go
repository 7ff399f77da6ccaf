// Package fixmsg holds the FIX 4.4 vocabulary spoken with the venue and
// helpers for reading fields that may or may not be present.
package fixmsg

// Message types handled or sent by the harness.
const (
	MsgTypeExecutionReport             = "8"
	MsgTypeMarketDataRequest           = "V"
	MsgTypeMarketDataSnapshot          = "W"
	MsgTypeNewOrderSingle              = "D"
	MsgTypeBusinessMessageReject       = "j"
	MsgTypeSecurityStatusRequest       = "e"
	MsgTypeTradingSessionStatusRequest = "g"
	MsgTypeTradingSessionStatus        = "h"
	MsgTypeCollateralReport            = "BA"
	MsgTypeCollateralInquiry           = "BB"
	MsgTypeUserRequest                 = "BE"
	MsgTypeUserResponse                = "BF"
	MsgTypeRequestForPositions         = "AN"
	MsgTypeRequestForPositionsAck      = "AO"
	MsgTypePositionReport              = "AP"
	MsgTypeReject                      = "3"
	MsgTypeLogon                       = "A"
	MsgTypeLogout                      = "5"
	MsgTypeHeartbeat                   = "0"
	MsgTypeTestRequest                 = "1"
)

// Kind classifies inbound message types for dispatch and metrics.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindUserResponse
	KindTradingSessionStatus
	KindCollateralReport
	KindMarketDataSnapshot
	KindExecutionReport
	KindPositionReport
	KindPositionAck
	KindBusinessReject
	KindAdmin
	KindCount
)

// KindOf maps a MsgType value to its Kind.
func KindOf(msgType string) Kind {
	switch msgType {
	case MsgTypeUserResponse:
		return KindUserResponse
	case MsgTypeTradingSessionStatus:
		return KindTradingSessionStatus
	case MsgTypeCollateralReport:
		return KindCollateralReport
	case MsgTypeMarketDataSnapshot:
		return KindMarketDataSnapshot
	case MsgTypeExecutionReport:
		return KindExecutionReport
	case MsgTypePositionReport:
		return KindPositionReport
	case MsgTypeRequestForPositionsAck:
		return KindPositionAck
	case MsgTypeBusinessMessageReject:
		return KindBusinessReject
	case MsgTypeLogon, MsgTypeLogout, MsgTypeHeartbeat, MsgTypeTestRequest, MsgTypeReject:
		return KindAdmin
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindUserResponse:
		return "user_response"
	case KindTradingSessionStatus:
		return "trading_session_status"
	case KindCollateralReport:
		return "collateral_report"
	case KindMarketDataSnapshot:
		return "market_data_snapshot"
	case KindExecutionReport:
		return "execution_report"
	case KindPositionReport:
		return "position_report"
	case KindPositionAck:
		return "position_ack"
	case KindBusinessReject:
		return "business_reject"
	case KindAdmin:
		return "admin"
	default:
		return "unknown"
	}
}
