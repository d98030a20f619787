package http_api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lidofinance/rta/fsm/types/requests"
	cs "github.com/lidofinance/rta/node/api/http_api/context_service"
	"github.com/lidofinance/rta/node/api/http_api/responses"
	"github.com/lidofinance/rta/node/config"
	"github.com/lidofinance/rta/node/modules/logger"
	"github.com/lidofinance/rta/node/modules/state"
	"github.com/lidofinance/rta/node/services"
	"github.com/lidofinance/rta/node/services/node"
	"github.com/lidofinance/rta/node/types"
	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

var (
	ledgerAddr = common.HexToAddress("0x0000000000000000000000000000000000000002")
	signer1    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	signer2    = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

type apiHarness struct {
	req *require.Assertions
	api *RESTApiProvider
}

func newAPIHarness(t *testing.T, required uint64) *apiHarness {
	req := require.New(t)
	cfg := &config.Config{
		HttpApiConfig: &config.HttpApiConfig{},
		Genesis: &config.GenesisConfig{
			RegistryAddress:    "0x0000000000000000000000000000000000000001",
			LedgerAddress:      ledgerAddr.Hex(),
			Signers:            []string{signer1.Hex(), signer2.Hex()},
			RequiredSignatures: required,
			FeeType:            "flat",
			FeeValue:           "0",
		},
	}
	l := logger.NewNopLogger()
	sp, err := services.NewServiceProvider(cfg, state.NewMemState(), nil, l)
	req.NoError(err)
	n, err := node.NewNode(context.Background(), "api_test", sp)
	req.NoError(err)
	return &apiHarness{req: req, api: NewRESTApiProvider(cfg.HttpApiConfig, n, l)}
}

func (h *apiHarness) do(method, target, principal string, body interface{}) (int, *responses.BaseResponse) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		h.req.NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, target, reader)
	r.Header.Set("Content-Type", "application/json")
	if principal != "" {
		r.Header.Set(cs.PrincipalHeader, principal)
	}
	w := httptest.NewRecorder()
	h.api.Handler().ServeHTTP(w, r)

	resp := &responses.BaseResponse{}
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		h.req.NoError(json.Unmarshal(w.Body.Bytes(), resp))
	}
	return w.Code, resp
}

func (h *apiHarness) submitMint(principal common.Address, to common.Address, amount int64) (int, *responses.BaseResponse) {
	instruction, err := types.EncodeInstruction(types.MethodMint, requests.MintRequest{To: to, Amount: decimal.NewFromInt(amount)})
	h.req.NoError(err)
	return h.do(http.MethodPost, "/submitOperation", principal.Hex(), map[string]interface{}{
		"target":      ledgerAddr.Hex(),
		"instruction": json.RawMessage(instruction),
	})
}

func TestSubmitOperation_ExecutesAndUpdatesAccount(t *testing.T) {
	h := newAPIHarness(t, 1)

	code, resp := h.submitMint(signer1, alice, 1000)
	h.req.Equal(http.StatusOK, code, resp.ErrorMessage)

	result := &types.EvaluationResult{}
	h.req.NoError(json.Unmarshal(resp.Result, result))
	h.req.True(result.Executed)
	h.req.Equal(uint64(1), result.Operation.ID)

	code, resp = h.do(http.MethodGet, "/getAccount?address="+alice.Hex(), "", nil)
	h.req.Equal(http.StatusOK, code)
	account := &types.Account{}
	h.req.NoError(json.Unmarshal(resp.Result, account))
	h.req.True(account.Balance.Equal(decimal.NewFromInt(1000)))

	code, resp = h.do(http.MethodGet, "/getTotalSupply", "", nil)
	h.req.Equal(http.StatusOK, code)
	supply := &responses.TotalSupplyResponse{}
	h.req.NoError(json.Unmarshal(resp.Result, supply))
	h.req.True(supply.TotalSupply.Equal(decimal.NewFromInt(1000)))
}

func TestConfirmFlow(t *testing.T) {
	h := newAPIHarness(t, 2)

	code, resp := h.submitMint(signer1, alice, 5)
	h.req.Equal(http.StatusOK, code, resp.ErrorMessage)

	code, resp = h.do(http.MethodGet, "/getOperations?pending=true", "", nil)
	h.req.Equal(http.StatusOK, code)
	var pending []*types.Operation
	h.req.NoError(json.Unmarshal(resp.Result, &pending))
	h.req.Len(pending, 1)

	code, resp = h.do(http.MethodGet, "/hasConfirmed?id=1&principal="+signer1.Hex(), "", nil)
	h.req.Equal(http.StatusOK, code)
	confirmed := &responses.HasConfirmedResponse{}
	h.req.NoError(json.Unmarshal(resp.Result, confirmed))
	h.req.True(confirmed.Confirmed)

	code, resp = h.do(http.MethodPost, "/confirmOperation", signer1.Hex(), map[string]interface{}{"id": 1})
	h.req.Equal(http.StatusConflict, code)
	h.req.Equal(rtaerrors.ClassStateConflict.String(), resp.ErrorClass)
	h.req.Equal(rtaerrors.ErrAlreadyConfirmed.Code(), resp.ErrorCode)

	code, resp = h.do(http.MethodPost, "/confirmOperation", signer2.Hex(), map[string]interface{}{"id": 1})
	h.req.Equal(http.StatusOK, code, resp.ErrorMessage)
	result := &types.EvaluationResult{}
	h.req.NoError(json.Unmarshal(resp.Result, result))
	h.req.True(result.Executed)
	h.req.Equal(2, result.ActiveConfirmations)

	code, _ = h.do(http.MethodPost, "/executeOperation", signer2.Hex(), map[string]interface{}{"id": 1})
	h.req.Equal(http.StatusConflict, code)
}

func TestErrorClassesMapToStatus(t *testing.T) {
	h := newAPIHarness(t, 1)

	code, resp := h.submitMint(alice, alice, 1)
	h.req.Equal(http.StatusForbidden, code)
	h.req.Equal(rtaerrors.ClassAuthorization.String(), resp.ErrorClass)
	h.req.Equal(rtaerrors.ErrNotASigner.Code(), resp.ErrorCode)

	code, resp = h.do(http.MethodGet, "/getOperation?id=42", "", nil)
	h.req.Equal(http.StatusNotFound, code)
	h.req.Equal(rtaerrors.ClassNotFound.String(), resp.ErrorClass)

	code, _ = h.do(http.MethodGet, "/getTransferRequests?status=bogus", "", nil)
	h.req.Equal(http.StatusBadRequest, code)

	instruction, err := types.EncodeInstruction(types.MethodMint, requests.MintRequest{To: signer1, Amount: decimal.NewFromInt(1)})
	h.req.NoError(err)
	code, resp = h.do(http.MethodPost, "/agentCall", signer1.Hex(), map[string]interface{}{
		"instruction": json.RawMessage(instruction),
	})
	h.req.Equal(http.StatusForbidden, code)
	h.req.Equal(rtaerrors.ErrUnauthorized.Code(), resp.ErrorCode)

	code, resp = h.do(http.MethodPost, "/replaceCode", signer1.Hex(), map[string]interface{}{
		"version":   "v2",
		"code_hash": "0x02",
	})
	h.req.Equal(http.StatusForbidden, code)
	h.req.Equal(rtaerrors.ErrUpgradeNotAuthorized.Code(), resp.ErrorCode)
}

func TestBadRequests(t *testing.T) {
	h := newAPIHarness(t, 1)

	for _, path := range []string{"/submitOperation", "/confirmOperation", "/requestTransfer"} {
		r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte("{not json")))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set(cs.PrincipalHeader, signer1.Hex())
		w := httptest.NewRecorder()
		h.api.Handler().ServeHTTP(w, r)
		h.req.Equal(http.StatusBadRequest, w.Code, path)

		// Exactly one JSON document: the node is not called after a failed bind.
		dec := json.NewDecoder(w.Body)
		var resp responses.BaseResponse
		h.req.NoError(dec.Decode(&resp), path)
		h.req.Equal(rtaerrors.ErrBadRequest.Code(), resp.ErrorCode, path)
		h.req.Equal(rtaerrors.ClassValidation.String(), resp.ErrorClass, path)
		h.req.ErrorIs(dec.Decode(&resp), io.EOF, path)
	}

	code, resp := h.do(http.MethodPost, "/requestTransfer", "not-an-address", map[string]interface{}{
		"from":   alice.Hex(),
		"to":     signer1.Hex(),
		"amount": "1",
	})
	h.req.Equal(http.StatusBadRequest, code)
	h.req.Equal(rtaerrors.ErrInvalidInput.Code(), resp.ErrorCode)

	code, _ = h.do(http.MethodGet, "/noSuchRoute", "", nil)
	h.req.Equal(http.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newAPIHarness(t, 1)
	h.submitMint(signer1, alice, 1)

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.api.Handler().ServeHTTP(w, r)
	h.req.Equal(http.StatusOK, w.Code)
	h.req.Contains(w.Body.String(), "rta_")
}
