package requests

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/fsm/config"
	"github.com/lidofinance/rta/pkg/utils"
)

var zeroAddress = common.Address{}

func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("{%s} must be positive", field)
	}
	return nil
}

func (r *OperationConfirmationRequest) Validate() error {
	if r.Principal == zeroAddress {
		return errors.New("{Principal} cannot be empty")
	}

	if r.CreatedAt.IsZero() {
		return errors.New("{CreatedAt} is not set")
	}

	return nil
}

func (r *OperationExecutedRequest) Validate() error {
	if r.ExecutedAt.IsZero() {
		return errors.New("{ExecutedAt} is not set")
	}
	return nil
}

func (r *SignerRequest) Validate() error {
	if r.Signer == zeroAddress {
		return errors.New("{Signer} cannot be empty")
	}
	return nil
}

func (r *ThresholdRequest) Validate() error {
	if r.RequiredSignatures < 1 {
		return errors.New("{RequiredSignatures} minimum is {1}")
	}
	return nil
}

func (r *UpgradeRequest) Validate() error {
	if r.Version == "" {
		return errors.New("{Version} cannot be empty")
	}

	if len(r.Version) > config.VersionMaxLength {
		return fmt.Errorf("{Version} maximum length is {%d}", config.VersionMaxLength)
	}

	if r.CodeHash == (common.Hash{}) {
		return errors.New("{CodeHash} cannot be empty")
	}

	return nil
}

func (r *GenesisRequest) Validate() error {
	if len(r.Signers) < config.SignersMinCount {
		return fmt.Errorf("too few signers, minimum is {%d}", config.SignersMinCount)
	}

	if len(r.Signers) > config.SignersMaxCount {
		return fmt.Errorf("too many signers, maximum is {%d}", config.SignersMaxCount)
	}

	for _, signer := range r.Signers {
		if signer == zeroAddress {
			return errors.New("{Signers} cannot contain an empty address")
		}
	}
	if signer, ok := utils.DuplicateAddress(r.Signers); ok {
		return fmt.Errorf("duplicate signer {%s}", signer.Hex())
	}

	if r.RequiredSignatures < 1 {
		return errors.New("{RequiredSignatures} minimum is {1}")
	}

	if r.RequiredSignatures > uint64(len(r.Signers)) {
		return errors.New("{RequiredSignatures} cannot be higher than {SignersCount}")
	}

	return nil
}

func (r *MintRequest) Validate() error {
	if r.To == zeroAddress {
		return errors.New("{To} cannot be empty")
	}
	return validateAmount("Amount", r.Amount)
}

func (r *BurnRequest) Validate() error {
	if r.From == zeroAddress {
		return errors.New("{From} cannot be empty")
	}
	return validateAmount("Amount", r.Amount)
}

func (r *TransferFromRequest) Validate() error {
	if r.From == zeroAddress || r.To == zeroAddress {
		return errors.New("{From} and {To} cannot be empty")
	}
	return validateAmount("Amount", r.Amount)
}

func (r *FeeParametersRequest) Validate() error {
	if r.Value.IsNegative() {
		return errors.New("{Value} cannot be negative")
	}

	switch r.Type {
	case "flat":
	case "percentage":
		if r.Value.GreaterThan(decimal.NewFromInt(config.BasisPointsDenominator)) {
			return fmt.Errorf("{Value} maximum is {%d} basis points", config.BasisPointsDenominator)
		}
		if !r.Value.Equal(r.Value.Truncate(0)) {
			return errors.New("{Value} must be a whole number of basis points")
		}
	default:
		return fmt.Errorf("unknown fee type {%s}", r.Type)
	}

	for _, token := range r.AcceptedTokens {
		if token == zeroAddress {
			return errors.New("{AcceptedTokens} cannot contain the native token")
		}
	}

	return nil
}

func (r *BrokerStatusRequest) Validate() error {
	if r.Broker == zeroAddress {
		return errors.New("{Broker} cannot be empty")
	}
	return nil
}

func (r *AccountFrozenRequest) Validate() error {
	if r.Account == zeroAddress {
		return errors.New("{Account} cannot be empty")
	}
	return nil
}

func (r *ProcessTransferRequest) Validate() error {
	if r.RequestID < 1 {
		return errors.New("{RequestID} minimum is {1}")
	}
	return nil
}

func (r *CourtOrderRequest) Validate() error {
	if r.From == zeroAddress || r.To == zeroAddress {
		return errors.New("{From} and {To} cannot be empty")
	}

	if r.CaseReference == "" {
		return errors.New("{CaseReference} cannot be empty")
	}

	if len(r.CaseReference) > config.CaseReferenceMaxLength {
		return fmt.Errorf("{CaseReference} maximum length is {%d}", config.CaseReferenceMaxLength)
	}

	return validateAmount("Amount", r.Amount)
}

func (r *RecoverTokenRequest) Validate() error {
	if r.To == zeroAddress {
		return errors.New("{To} cannot be empty")
	}
	return validateAmount("Amount", r.Amount)
}

func (r *TransferWithFeeRequest) Validate() error {
	if r.From == zeroAddress || r.To == zeroAddress {
		return errors.New("{From} and {To} cannot be empty")
	}

	if r.FeeAmount.IsNegative() {
		return errors.New("{FeeAmount} cannot be negative")
	}

	if r.Value.IsNegative() {
		return errors.New("{Value} cannot be negative")
	}

	return validateAmount("Amount", r.Amount)
}

func (r *TransferRequestFinalizedRequest) Validate() error {
	if r.FinalizedAt.IsZero() {
		return errors.New("{FinalizedAt} is not set")
	}
	return nil
}
