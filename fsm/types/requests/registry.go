package requests

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// States: "state_operation_pending"
// Events: "event_operation_confirm", "event_operation_revoke"
type OperationConfirmationRequest struct {
	Principal common.Address
	CreatedAt time.Time
}

// States: "state_operation_pending"
// Events: "event_operation_execute_internal"
type OperationExecutedRequest struct {
	ExecutedAt time.Time
}

// Args of addSigner and removeSigner.
type SignerRequest struct {
	Signer common.Address `json:"signer"`
}

// Args of updateRequiredSignatures.
type ThresholdRequest struct {
	RequiredSignatures uint64 `json:"required_signatures"`
}

// Args of upgradeTo, for the registry and the ledger.
type UpgradeRequest struct {
	Version  string      `json:"version"`
	CodeHash common.Hash `json:"code_hash"`
}

// GenesisRequest is the initial signer set of a registry.
type GenesisRequest struct {
	Signers            []common.Address
	RequiredSignatures uint64
}
