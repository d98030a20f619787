package context_service

import (
	"net/http"

	"github.com/censync/go-dto"
	"github.com/censync/go-validator"
	"github.com/labstack/echo/v4"

	rtaerrors "github.com/lidofinance/rta/pkg/errors"
)

// PrincipalHeader carries the address of the authenticated caller. The node
// trusts it as is, authentication happens in front of the node.
const PrincipalHeader = "X-Principal"

type ContextService struct {
	echo.Context
}

func New(c echo.Context) *ContextService {
	return &ContextService{
		c,
	}
}

type CSJsonResp struct {
	Result interface{} `json:"result"`
}

// Custom error
type CSErrorResp struct {
	Status       int         `json:"-"`
	Result       interface{} `json:"result"`
	ErrorMessage string      `json:"error_message,omitempty"`
	ErrorCode    uint32      `json:"error_code,omitempty"`
	ErrorClass   string      `json:"error_class,omitempty"`
}

// NewErrorResp builds the error body for err. It is not written, the
// error handler of the server writes it.
func NewErrorResp(status int, err error) *CSErrorResp {
	if err == nil {
		return &CSErrorResp{
			Status:       status,
			Result:       struct{}{},
			ErrorMessage: "undefined error",
		}
	}
	return &CSErrorResp{
		Status:       status,
		Result:       struct{}{},
		ErrorMessage: err.Error(),
		ErrorCode:    rtaerrors.CodeOf(err),
		ErrorClass:   rtaerrors.ClassOf(err).String(),
	}
}

func (e *CSErrorResp) Error() string {
	if e == nil {
		return ""
	}
	return e.ErrorMessage
}

// Principal returns the caller address as sent in PrincipalHeader.
func (cs *ContextService) Principal() string {
	return cs.Request().Header.Get(PrincipalHeader)
}

// BindToRequest populates the request fields based on the context path and query parameters and body
// and validates the result. On failure nothing is written, the returned *CSErrorResp is.
func (cs *ContextService) BindToRequest(request interface{}) error {
	if err := cs.Bind(request); err != nil {
		return NewErrorResp(http.StatusBadRequest, rtaerrors.ErrBadRequest.Newf("failed to read request body: %v", err))
	}
	if err := validator.Validate(request); !err.IsEmpty() {
		return NewErrorResp(http.StatusBadRequest, rtaerrors.ErrBadRequest.Newf("%v", err.Error()))
	}
	return nil
}

// BindToDTO builds a request of the given form based on the context and converts it to a DTO.
func (cs *ContextService) BindToDTO(requestForm, dtoForm interface{}) error {
	if err := cs.BindToRequest(requestForm); err != nil {
		return err
	}
	if err := dto.RequestToDTO(dtoForm, requestForm); err != nil {
		return NewErrorResp(http.StatusBadRequest, rtaerrors.ErrBadRequest.New(err.Error()))
	}
	return nil
}

func (cs *ContextService) Json(code int, data interface{}) error {
	if data != nil {
		return cs.JSON(code, &CSJsonResp{
			Result: data,
		})
	} else {
		return cs.JSON(code, &CSJsonResp{
			Result: struct{}{},
		})
	}
}

func (cs *ContextService) JsonEmpty(code int) error {
	return cs.JSON(code, &CSJsonResp{
		Result: struct{}{},
	})
}

func (cs *ContextService) JsonError(code int, err error) error {
	return cs.JSON(code, NewErrorResp(code, err))
}

// JsonErrorOf responds with the status that matches the class of err.
func (cs *ContextService) JsonErrorOf(err error) error {
	return cs.JsonError(StatusOf(err), err)
}

// StatusOf maps the class of err to an HTTP status.
func StatusOf(err error) int {
	switch rtaerrors.ClassOf(err) {
	case rtaerrors.ClassAuthorization:
		return http.StatusForbidden
	case rtaerrors.ClassStateConflict:
		return http.StatusConflict
	case rtaerrors.ClassValidation:
		return http.StatusBadRequest
	case rtaerrors.ClassNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
