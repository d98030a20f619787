package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/fsm/types/requests"
	"github.com/lidofinance/rta/node/modules/logger"
	"github.com/lidofinance/rta/node/modules/state"
	ledgerRepo "github.com/lidofinance/rta/node/repositories/ledger"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

const Topic = "ledger"

// TransferRequestLedger keeps balances, account flags, fee parameters and
// transfer requests. Its privileged methods accept only the transfer agent
// bound at genesis, usually the operation registry.
type TransferRequestLedger struct {
	address common.Address
	logger  logger.Logger
}

var _ types.Target = (*TransferRequestLedger)(nil)

func NewTransferRequestLedger(address common.Address, l logger.Logger) *TransferRequestLedger {
	return &TransferRequestLedger{
		address: address,
		logger:  l.With("ledger"),
	}
}

func (l *TransferRequestLedger) Address() common.Address {
	return l.address
}

// InitGenesis binds the transfer agent and the initial fee parameters. The
// agent cannot change afterwards: a later genesis with another agent fails.
func (l *TransferRequestLedger) InitGenesis(kv state.KVStore, agent common.Address, params *types.FeeParameters) error {
	repo := ledgerRepo.NewLedgerRepo(kv, Topic)

	bound, err := repo.GetTransferAgent()
	if err != nil {
		return err
	}
	if bound != nil {
		if *bound != agent {
			return rtaerrors.ErrInvalidInput.Newf("transfer agent is bound to %s, got %s", bound.Hex(), agent.Hex())
		}
		return nil
	}

	if agent == (common.Address{}) {
		return rtaerrors.ErrInvalidInput.New("transfer agent cannot be empty")
	}

	feeRequest := requests.FeeParametersRequest{
		Type:           string(params.Type),
		Value:          params.Value,
		AcceptedTokens: params.AcceptedTokens,
	}
	if err := feeRequest.Validate(); err != nil {
		return rtaerrors.ErrInvalidInput.Newf("genesis fee parameters: %v", err)
	}

	if err := repo.PutTransferAgent(agent); err != nil {
		return err
	}
	return repo.PutFeeParameters(params)
}

// authorize checks that caller is the bound transfer agent.
func (l *TransferRequestLedger) authorize(repo ledgerRepo.LedgerRepo, caller common.Address, method string) error {
	agent, err := repo.GetTransferAgent()
	if err != nil {
		return err
	}
	if agent == nil {
		return rtaerrors.ErrInternal.New("ledger genesis is not initialized")
	}
	if caller != *agent {
		return rtaerrors.ErrUnauthorized.Newf("%s: caller %s is not the transfer agent", method, caller.Hex())
	}
	return nil
}

type validatable interface {
	Validate() error
}

func validate(method string, request validatable) error {
	if err := request.Validate(); err != nil {
		return rtaerrors.ErrInvalidInput.Newf("%s: %v", method, err)
	}
	return nil
}

// move debits from and credits to. It checks nothing but the balance.
func (l *TransferRequestLedger) move(repo ledgerRepo.LedgerRepo, from, to common.Address, amount decimal.Decimal) error {
	fromBalance, err := repo.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.LessThan(amount) {
		return insufficientBalance(from, fromBalance, amount)
	}
	if err := repo.PutBalance(from, fromBalance.Sub(amount)); err != nil {
		return err
	}

	toBalance, err := repo.GetBalance(to)
	if err != nil {
		return err
	}
	return repo.PutBalance(to, toBalance.Add(amount))
}

func (l *TransferRequestLedger) checkNotFrozen(repo ledgerRepo.LedgerRepo, account common.Address) error {
	frozen, err := repo.IsFrozen(account)
	if err != nil {
		return err
	}
	if frozen {
		return rtaerrors.ErrAccountFrozen.New(account.Hex())
	}
	return nil
}

func insufficientBalance(account common.Address, has, needs decimal.Decimal) error {
	return rtaerrors.ErrInsufficientBalance.Newf("%s has %s, needs %s", account.Hex(), has, needs)
}
