package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	. "github.com/lidofinance/rta/node/api/dto"
	cs "github.com/lidofinance/rta/node/api/http_api/context_service"
	req "github.com/lidofinance/rta/node/api/http_api/requests"
	"github.com/lidofinance/rta/node/api/http_api/responses"
)

func (a *HTTPApp) SubmitOperation(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &SubmitOperationDTO{}
	if err := stx.BindToDTO(&req.SubmitOperationForm{}, formDTO); err != nil {
		return err
	}
	formDTO.Principal = stx.Principal()

	result, err := a.node.SubmitOperation(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, result)
}

func (a *HTTPApp) ConfirmOperation(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &OperationIdDTO{}
	if err := stx.BindToDTO(&req.OperationIdForm{}, formDTO); err != nil {
		return err
	}
	formDTO.Principal = stx.Principal()

	result, err := a.node.ConfirmOperation(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, result)
}

func (a *HTTPApp) RevokeConfirmation(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &OperationIdDTO{}
	if err := stx.BindToDTO(&req.OperationIdForm{}, formDTO); err != nil {
		return err
	}
	formDTO.Principal = stx.Principal()

	operation, err := a.node.RevokeConfirmation(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, operation)
}

func (a *HTTPApp) ExecuteOperation(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &OperationIdDTO{}
	if err := stx.BindToDTO(&req.OperationIdForm{}, formDTO); err != nil {
		return err
	}
	formDTO.Principal = stx.Principal()

	result, err := a.node.ExecuteOperation(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, result)
}

func (a *HTTPApp) ReplaceCode(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &ReplaceCodeDTO{}
	if err := stx.BindToDTO(&req.ReplaceCodeForm{}, formDTO); err != nil {
		return err
	}
	formDTO.Principal = stx.Principal()

	if err := a.node.ReplaceCode(formDTO); err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, responses.OK)
}

func (a *HTTPApp) GetOperation(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &OperationIdDTO{}
	if err := stx.BindToDTO(&req.OperationIdForm{}, formDTO); err != nil {
		return err
	}

	operation, err := a.node.GetOperation(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, operation)
}

func (a *HTTPApp) GetOperations(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &OperationsDTO{}
	if err := stx.BindToDTO(&req.OperationsForm{}, formDTO); err != nil {
		return err
	}

	operations, err := a.node.GetOperations(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, operations)
}

func (a *HTTPApp) HasConfirmed(c echo.Context) error {
	stx := c.(*cs.ContextService)
	formDTO := &HasConfirmedDTO{}
	if err := stx.BindToDTO(&req.HasConfirmedForm{}, formDTO); err != nil {
		return err
	}

	confirmed, err := a.node.HasConfirmed(formDTO)
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, responses.HasConfirmedResponse{Confirmed: confirmed})
}

func (a *HTTPApp) GetSigners(c echo.Context) error {
	stx := c.(*cs.ContextService)
	signers, err := a.node.GetSigners()
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	return stx.Json(http.StatusOK, signers)
}

func (a *HTTPApp) GetImplementation(c echo.Context) error {
	stx := c.(*cs.ContextService)
	impl, err := a.node.GetImplementation()
	if err != nil {
		return stx.JsonErrorOf(err)
	}
	if impl == nil {
		return stx.JsonEmpty(http.StatusOK)
	}
	return stx.Json(http.StatusOK, impl)
}
