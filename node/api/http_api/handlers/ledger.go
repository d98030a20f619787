package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	. "github.com/lidofinance/rta/node/api/dto"
	cs "github.com/lidofinance/rta/node/api/http_api/context_service"
	req "github.com/lidofinance/rta/node/api/http_api/requests"
	"github.com/lidofinance/rta/node/api/http_api/responses"
)

func (a *HTTPApp) RequestTransfer(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &TransferRequestDTO{}
	if err := stx.BindToDTO(&req.TransferRequestForm{}, formDTO); err != nil {
		return err
	}
	formDTO.Principal = stx.Principal()

	request, err := a.node.RequestTransfer(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, request)
}

func (a *HTTPApp) AgentCall(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &AgentCallDTO{}
	if err := stx.BindToDTO(&req.AgentCallForm{}, formDTO); err != nil {
		return err
	}
	formDTO.Principal = stx.Principal()

	if err := a.node.AgentCall(formDTO); err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, responses.OK)
}

func (a *HTTPApp) GetTransferRequest(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &TransferRequestIdDTO{}
	if err := stx.BindToDTO(&req.TransferRequestIdForm{}, formDTO); err != nil {
		return err
	}

	request, err := a.node.GetTransferRequest(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, request)
}

func (a *HTTPApp) GetTransferRequests(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &TransferRequestsDTO{}
	if err := stx.BindToDTO(&req.TransferRequestsForm{}, formDTO); err != nil {
		return err
	}

	list, err := a.node.GetTransferRequests(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, list)
}

func (a *HTTPApp) GetAccount(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &AccountDTO{}
	if err := stx.BindToDTO(&req.AccountForm{}, formDTO); err != nil {
		return err
	}

	account, err := a.node.GetAccount(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, account)
}

func (a *HTTPApp) GetFeeParameters(c echo.Context) error {
	stx := c.(*cs.ContextService)
	params, err := a.node.GetFeeParameters()
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, params)
}

func (a *HTTPApp) GetTotalSupply(c echo.Context) error {
	stx := c.(*cs.ContextService)
	supply, err := a.node.GetTotalSupply()
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, responses.TotalSupplyResponse{TotalSupply: supply})
}
