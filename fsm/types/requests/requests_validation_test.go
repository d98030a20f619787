package requests

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func TestGenesisRequest_Validate(t *testing.T) {
	req := require.New(t)

	r := GenesisRequest{Signers: []common.Address{alice, bob}, RequiredSignatures: 2}
	req.NoError(r.Validate())

	r.RequiredSignatures = 3
	req.EqualError(r.Validate(), "{RequiredSignatures} cannot be higher than {SignersCount}")

	r.RequiredSignatures = 0
	req.EqualError(r.Validate(), "{RequiredSignatures} minimum is {1}")

	r = GenesisRequest{Signers: []common.Address{alice, bob, alice}, RequiredSignatures: 1}
	req.EqualError(r.Validate(), "duplicate signer {"+alice.Hex()+"}")

	r = GenesisRequest{RequiredSignatures: 1}
	req.Error(r.Validate())
}

func TestFeeParametersRequest_Validate(t *testing.T) {
	req := require.New(t)

	r := FeeParametersRequest{Type: "percentage", Value: decimal.NewFromInt(10000)}
	req.NoError(r.Validate())

	r.Value = decimal.NewFromInt(10001)
	req.Error(r.Validate())

	r.Value = decimal.RequireFromString("12.5")
	req.Error(r.Validate())

	r = FeeParametersRequest{Type: "flat", Value: decimal.NewFromInt(50000), AcceptedTokens: []common.Address{bob}}
	req.NoError(r.Validate())

	r.AcceptedTokens = append(r.AcceptedTokens, common.Address{})
	req.Error(r.Validate())

	r = FeeParametersRequest{Type: "flat", Value: decimal.NewFromInt(-1)}
	req.Error(r.Validate())

	r = FeeParametersRequest{Type: "tiered", Value: decimal.NewFromInt(1)}
	req.Error(r.Validate())
}

func TestAmountValidation(t *testing.T) {
	req := require.New(t)

	req.NoError((&MintRequest{To: alice, Amount: decimal.NewFromInt(1)}).Validate())
	req.Error((&MintRequest{To: alice, Amount: decimal.Zero}).Validate())
	req.Error((&MintRequest{Amount: decimal.NewFromInt(1)}).Validate())
	req.Error((&BurnRequest{From: alice, Amount: decimal.NewFromInt(-5)}).Validate())
	req.Error((&TransferFromRequest{From: alice, Amount: decimal.NewFromInt(5)}).Validate())
	req.Error((&CourtOrderRequest{From: alice, To: bob, Amount: decimal.NewFromInt(5)}).Validate())
	req.NoError((&CourtOrderRequest{From: alice, To: bob, Amount: decimal.NewFromInt(5), CaseReference: "case-1"}).Validate())
	req.NoError((&RecoverTokenRequest{To: bob, Amount: decimal.NewFromInt(1)}).Validate())
}

func TestTransferWithFeeRequest_Validate(t *testing.T) {
	req := require.New(t)

	r := TransferWithFeeRequest{From: alice, To: bob, Amount: decimal.NewFromInt(100)}
	req.NoError(r.Validate())

	r.FeeAmount = decimal.NewFromInt(-1)
	req.EqualError(r.Validate(), "{FeeAmount} cannot be negative")
}

func TestOperationRequests_Validate(t *testing.T) {
	req := require.New(t)

	req.Error((&OperationConfirmationRequest{Principal: alice}).Validate())
	req.NoError((&OperationConfirmationRequest{Principal: alice, CreatedAt: time.Now()}).Validate())
	req.Error((&OperationExecutedRequest{}).Validate())
	req.Error((&ThresholdRequest{}).Validate())
	req.Error((&UpgradeRequest{Version: "v2"}).Validate())
	req.NoError((&UpgradeRequest{Version: "v2", CodeHash: common.HexToHash("0x01")}).Validate())
}
