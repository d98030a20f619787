package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// NativeFeeToken marks a fee paid with the value attached to the call
// instead of a token balance.
var NativeFeeToken = common.Address{}

// Operation is a privileged call waiting for (or done with) signer
// confirmations. Confirmations keep every principal that ever confirmed and
// is not revoked, including principals that later left the signer set.
type Operation struct {
	ID            uint64           `json:"id"`
	Target        common.Address   `json:"target"`
	Data          []byte           `json:"data"`
	Value         decimal.Decimal  `json:"value"`
	Creator       common.Address   `json:"creator"`
	Confirmations []common.Address `json:"confirmations"`
	Executed      bool             `json:"executed"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	ExecutedAt    *time.Time       `json:"executed_at,omitempty"`
	LastError     string           `json:"last_error,omitempty"`
}

func (o *Operation) HasConfirmed(principal common.Address) bool {
	for _, c := range o.Confirmations {
		if c == principal {
			return true
		}
	}
	return false
}

func (o *Operation) Status() string {
	if o.Executed {
		return "executed"
	}
	return "pending"
}

// ActiveConfirmations counts the confirmers that are members of signers right
// now. It must be called at every evaluation and never cached.
func ActiveConfirmations(confirmers []common.Address, signers []common.Address) int {
	members := make(map[common.Address]struct{}, len(signers))
	for _, s := range signers {
		members[s] = struct{}{}
	}
	active := 0
	for _, c := range confirmers {
		if _, ok := members[c]; ok {
			active++
		}
	}
	return active
}

type SignerSet struct {
	Signers            []common.Address `json:"signers"`
	RequiredSignatures uint64           `json:"required_signatures"`
}

func (s *SignerSet) Contains(principal common.Address) bool {
	return s.IndexOf(principal) >= 0
}

func (s *SignerSet) IndexOf(principal common.Address) int {
	for i, signer := range s.Signers {
		if signer == principal {
			return i
		}
	}
	return -1
}

// Satisfiable reports whether the threshold can be reached by the current
// members at all.
func (s *SignerSet) Satisfiable() bool {
	return s.RequiredSignatures >= 1 && s.RequiredSignatures <= uint64(len(s.Signers))
}

// EvaluationResult is what submit, confirm and execute report back. A failed
// target call leaves Executed false and sets ExecutionError.
type EvaluationResult struct {
	Operation           *Operation `json:"operation"`
	ActiveConfirmations int        `json:"active_confirmations"`
	RequiredSignatures  uint64     `json:"required_signatures"`
	Executed            bool       `json:"executed"`
	ExecutionError      string     `json:"execution_error,omitempty"`
}

type Status string

const (
	StatusRequested Status = "requested"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func (s Status) IsFinal() bool {
	return s == StatusApproved || s == StatusRejected
}

type TransferRequest struct {
	ID          uint64          `json:"id"`
	From        common.Address  `json:"from"`
	To          common.Address  `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	FeeToken    common.Address  `json:"fee_token"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	Status      Status          `json:"status"`
	RequestedBy common.Address  `json:"requested_by"`
	RequestedAt time.Time       `json:"requested_at"`
	FinalizedAt *time.Time      `json:"finalized_at,omitempty"`
}

type FeeType string

const (
	FeeTypeFlat       FeeType = "flat"
	FeeTypePercentage FeeType = "percentage"
)

func (t FeeType) IsValid() bool {
	return t == FeeTypeFlat || t == FeeTypePercentage
}

// FeeParameters holds the transfer fee. For FeeTypePercentage Value is in
// basis points of the transferred amount.
type FeeParameters struct {
	Type           FeeType          `json:"type"`
	Value          decimal.Decimal  `json:"value"`
	AcceptedTokens []common.Address `json:"accepted_tokens"`
}

// RequiredFee returns the minimal fee for a transfer of amount.
func (p *FeeParameters) RequiredFee(amount decimal.Decimal, basisPoints int64) decimal.Decimal {
	if p.Type == FeeTypePercentage {
		return amount.Mul(p.Value).Div(decimal.NewFromInt(basisPoints))
	}
	return p.Value
}

func (p *FeeParameters) Accepts(token common.Address) bool {
	if token == NativeFeeToken {
		return true
	}
	for _, t := range p.AcceptedTokens {
		if t == token {
			return true
		}
	}
	return false
}

type Account struct {
	Address common.Address  `json:"address"`
	Balance decimal.Decimal `json:"balance"`
	Locked  decimal.Decimal `json:"locked"`
	Frozen  bool            `json:"frozen"`
	Broker  bool            `json:"broker"`
}
