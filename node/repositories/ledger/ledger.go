package ledger

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
	"github.com/lidofinance/rta/pkg/upgrade"
)

const (
	AgentKey          = "agent"
	FeeParametersKey  = "fee_parameters"
	TotalSupplyKey    = "total_supply"
	BalanceKey        = "balance"
	LockedKey         = "locked"
	FrozenKey         = "frozen"
	BrokerKey         = "broker"
	RequestSeqKey     = "request_seq"
	RequestKey        = "request"
	CollectedFeesKey  = "collected_fees"
	FeeCreditKey      = "fee_credit"
	ImplementationKey = "implementation"
)

type LedgerRepo interface {
	GetTransferAgent() (*common.Address, error)
	PutTransferAgent(agent common.Address) error

	GetFeeParameters() (*types.FeeParameters, error)
	PutFeeParameters(params *types.FeeParameters) error

	GetTotalSupply() (decimal.Decimal, error)
	PutTotalSupply(amount decimal.Decimal) error
	GetBalance(account common.Address) (decimal.Decimal, error)
	PutBalance(account common.Address, amount decimal.Decimal) error
	GetLocked(account common.Address) (decimal.Decimal, error)
	PutLocked(account common.Address, amount decimal.Decimal) error

	IsFrozen(account common.Address) (bool, error)
	PutFrozen(account common.Address, frozen bool) error
	IsBroker(account common.Address) (bool, error)
	PutBroker(account common.Address, approved bool) error

	NextRequestID() (uint64, error)
	LastRequestID() (uint64, error)
	PutTransferRequest(request *types.TransferRequest) error
	GetTransferRequestByID(id uint64) (*types.TransferRequest, error)
	GetTransferRequests() ([]*types.TransferRequest, error)

	GetCollectedFees(token common.Address) (decimal.Decimal, error)
	PutCollectedFees(token common.Address, amount decimal.Decimal) error
	GetFeeCredit(account, token common.Address) (decimal.Decimal, error)
	PutFeeCredit(account, token common.Address, amount decimal.Decimal) error

	GetImplementation() (*upgrade.Implementation, error)
	PutImplementation(impl *upgrade.Implementation) error
}

type BaseLedgerRepo struct {
	state state.KVStore
	topic string
}

func NewLedgerRepo(kv state.KVStore, topic string) *BaseLedgerRepo {
	return &BaseLedgerRepo{
		state: kv,
		topic: topic,
	}
}

func (r *BaseLedgerRepo) key(parts ...string) string {
	key := r.topic
	for _, p := range parts {
		key = state.MakeCompositeKeyString(key, p)
	}
	return key
}

func (r *BaseLedgerRepo) get(key string, dst interface{}) (bool, error) {
	ok, err := state.GetJSON(r.state, key, dst)
	if err != nil {
		return false, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to get %s: %v", key, err))
	}
	return ok, nil
}

func (r *BaseLedgerRepo) put(key string, value interface{}) error {
	if err := state.SetJSON(r.state, key, value); err != nil {
		return rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to put %s: %v", key, err))
	}
	return nil
}

// getAmount returns zero for a missing key.
func (r *BaseLedgerRepo) getAmount(key string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	ok, err := r.get(key, &amount)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	return amount, nil
}

// putAmount deletes zero amounts to keep the state small.
func (r *BaseLedgerRepo) putAmount(key string, amount decimal.Decimal) error {
	if amount.IsZero() {
		if err := r.state.Delete(key); err != nil {
			return rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to delete %s: %v", key, err))
		}
		return nil
	}
	return r.put(key, amount)
}

func (r *BaseLedgerRepo) getFlag(key string) (bool, error) {
	var flag bool
	_, err := r.get(key, &flag)
	return flag, err
}

func (r *BaseLedgerRepo) putFlag(key string, flag bool) error {
	if !flag {
		if err := r.state.Delete(key); err != nil {
			return rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to delete %s: %v", key, err))
		}
		return nil
	}
	return r.put(key, flag)
}

// GetTransferAgent returns nil before genesis.
func (r *BaseLedgerRepo) GetTransferAgent() (*common.Address, error) {
	var agent common.Address
	ok, err := r.get(r.key(AgentKey), &agent)
	if err != nil || !ok {
		return nil, err
	}
	return &agent, nil
}

func (r *BaseLedgerRepo) PutTransferAgent(agent common.Address) error {
	return r.put(r.key(AgentKey), agent)
}

func (r *BaseLedgerRepo) GetFeeParameters() (*types.FeeParameters, error) {
	params := &types.FeeParameters{Type: types.FeeTypeFlat}
	if _, err := r.get(r.key(FeeParametersKey), params); err != nil {
		return nil, err
	}
	return params, nil
}

func (r *BaseLedgerRepo) PutFeeParameters(params *types.FeeParameters) error {
	return r.put(r.key(FeeParametersKey), params)
}

func (r *BaseLedgerRepo) GetTotalSupply() (decimal.Decimal, error) {
	return r.getAmount(r.key(TotalSupplyKey))
}

func (r *BaseLedgerRepo) PutTotalSupply(amount decimal.Decimal) error {
	return r.putAmount(r.key(TotalSupplyKey), amount)
}

func (r *BaseLedgerRepo) GetBalance(account common.Address) (decimal.Decimal, error) {
	return r.getAmount(r.key(BalanceKey, account.Hex()))
}

func (r *BaseLedgerRepo) PutBalance(account common.Address, amount decimal.Decimal) error {
	return r.putAmount(r.key(BalanceKey, account.Hex()), amount)
}

// GetLocked returns the sum of amounts of pending transfer requests from
// account.
func (r *BaseLedgerRepo) GetLocked(account common.Address) (decimal.Decimal, error) {
	return r.getAmount(r.key(LockedKey, account.Hex()))
}

func (r *BaseLedgerRepo) PutLocked(account common.Address, amount decimal.Decimal) error {
	return r.putAmount(r.key(LockedKey, account.Hex()), amount)
}

func (r *BaseLedgerRepo) IsFrozen(account common.Address) (bool, error) {
	return r.getFlag(r.key(FrozenKey, account.Hex()))
}

func (r *BaseLedgerRepo) PutFrozen(account common.Address, frozen bool) error {
	return r.putFlag(r.key(FrozenKey, account.Hex()), frozen)
}

func (r *BaseLedgerRepo) IsBroker(account common.Address) (bool, error) {
	return r.getFlag(r.key(BrokerKey, account.Hex()))
}

func (r *BaseLedgerRepo) PutBroker(account common.Address, approved bool) error {
	return r.putFlag(r.key(BrokerKey, account.Hex()), approved)
}

// NextRequestID reserves the next transfer request id, starting at 1.
func (r *BaseLedgerRepo) NextRequestID() (uint64, error) {
	last, err := r.LastRequestID()
	if err != nil {
		return 0, err
	}
	next := last + 1
	if err := r.state.Set(r.key(RequestSeqKey), []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to put request seq: %v", err))
	}
	return next, nil
}

func (r *BaseLedgerRepo) LastRequestID() (uint64, error) {
	bz, err := r.state.Get(r.key(RequestSeqKey))
	if err != nil {
		return 0, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("failed to get request seq: %v", err))
	}
	if bz == nil {
		return 0, nil
	}
	seq, err := strconv.ParseUint(string(bz), 10, 64)
	if err != nil {
		return 0, rtaerrors.Wrap(rtaerrors.ErrDatabase, fmt.Sprintf("corrupted request seq %q", bz))
	}
	return seq, nil
}

func (r *BaseLedgerRepo) PutTransferRequest(request *types.TransferRequest) error {
	return r.put(r.key(RequestKey, strconv.FormatUint(request.ID, 10)), request)
}

func (r *BaseLedgerRepo) GetTransferRequestByID(id uint64) (*types.TransferRequest, error) {
	var request types.TransferRequest
	ok, err := r.get(r.key(RequestKey, strconv.FormatUint(id, 10)), &request)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rtaerrors.ErrUnknownRequest.Newf("transfer request %d", id)
	}
	return &request, nil
}

func (r *BaseLedgerRepo) GetTransferRequests() ([]*types.TransferRequest, error) {
	last, err := r.LastRequestID()
	if err != nil {
		return nil, err
	}
	result := make([]*types.TransferRequest, 0, last)
	for id := uint64(1); id <= last; id++ {
		request, err := r.GetTransferRequestByID(id)
		if err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, nil
}

func (r *BaseLedgerRepo) GetCollectedFees(token common.Address) (decimal.Decimal, error) {
	return r.getAmount(r.key(CollectedFeesKey, token.Hex()))
}

func (r *BaseLedgerRepo) PutCollectedFees(token common.Address, amount decimal.Decimal) error {
	return r.putAmount(r.key(CollectedFeesKey, token.Hex()), amount)
}

// GetFeeCredit returns refunded fees of account, paid in token.
func (r *BaseLedgerRepo) GetFeeCredit(account, token common.Address) (decimal.Decimal, error) {
	return r.getAmount(r.key(FeeCreditKey, account.Hex(), token.Hex()))
}

func (r *BaseLedgerRepo) PutFeeCredit(account, token common.Address, amount decimal.Decimal) error {
	return r.putAmount(r.key(FeeCreditKey, account.Hex(), token.Hex()), amount)
}

func (r *BaseLedgerRepo) GetImplementation() (*upgrade.Implementation, error) {
	var impl upgrade.Implementation
	ok, err := r.get(r.key(ImplementationKey), &impl)
	if err != nil || !ok {
		return nil, err
	}
	return &impl, nil
}

func (r *BaseLedgerRepo) PutImplementation(impl *upgrade.Implementation) error {
	return r.put(r.key(ImplementationKey), impl)
}
