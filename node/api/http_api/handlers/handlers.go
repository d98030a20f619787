package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	cs "github.com/lidofinance/rta/node/api/http_api/context_service"
	"github.com/lidofinance/rta/node/services/node"
)

type HTTPApp struct {
	node node.NodeService
}

func NewHTTPApp(node node.NodeService) *HTTPApp {
	return &HTTPApp{
		node: node,
	}
}

func (a *HTTPApp) GetUsername(c echo.Context) error {
	stx := c.(*cs.ContextService)
	return stx.Json(http.StatusOK, a.node.GetUsername())
}
