package responses

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type BaseResponse struct {
	ErrorMessage string          `json:"error_message,omitempty"`
	ErrorCode    uint32          `json:"error_code,omitempty"`
	ErrorClass   string          `json:"error_class,omitempty"`
	Result       json.RawMessage `json:"result"`
}

type TotalSupplyResponse struct {
	TotalSupply decimal.Decimal `json:"total_supply"`
}

type HasConfirmedResponse struct {
	Confirmed bool `json:"confirmed"`
}

const OK = "ok"
