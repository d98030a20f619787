package requests

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type MintRequest struct {
	To     common.Address  `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type BurnRequest struct {
	From   common.Address  `json:"from"`
	Amount decimal.Decimal `json:"amount"`
}

type TransferFromRequest struct {
	From   common.Address  `json:"from"`
	To     common.Address  `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type FeeParametersRequest struct {
	Type           string           `json:"type"`
	Value          decimal.Decimal  `json:"value"`
	AcceptedTokens []common.Address `json:"accepted_tokens"`
}

type BrokerStatusRequest struct {
	Broker   common.Address `json:"broker"`
	Approved bool           `json:"approved"`
}

type AccountFrozenRequest struct {
	Account common.Address `json:"account"`
	Frozen  bool           `json:"frozen"`
}

// States: "requested"
// Events: "event_transfer_request_approve", "event_transfer_request_reject"
type ProcessTransferRequest struct {
	RequestID uint64 `json:"request_id"`
	Approve   bool   `json:"approve"`
}

type CourtOrderRequest struct {
	From          common.Address  `json:"from"`
	To            common.Address  `json:"to"`
	Amount        decimal.Decimal `json:"amount"`
	CaseReference string          `json:"case_reference"`
}

// RecoverTokenRequest withdraws collected fees of Token.
type RecoverTokenRequest struct {
	Token  common.Address  `json:"token"`
	To     common.Address  `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type TransferWithFeeRequest struct {
	From      common.Address
	To        common.Address
	Amount    decimal.Decimal
	FeeToken  common.Address
	FeeAmount decimal.Decimal
	// Value is the native value attached to the call.
	Value decimal.Decimal
}

type TransferRequestFinalizedRequest struct {
	FinalizedAt time.Time
}
