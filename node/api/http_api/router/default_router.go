package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lidofinance/rta/node/api/http_api/handlers"
	"github.com/lidofinance/rta/node/services/node"
)

func SetRouter(e *echo.Echo, node node.NodeService) {
	h := handlers.NewHTTPApp(node)

	e.GET("/getUsername", h.GetUsername)

	e.POST("/submitOperation", h.SubmitOperation)
	e.POST("/confirmOperation", h.ConfirmOperation)
	e.POST("/revokeConfirmation", h.RevokeConfirmation)
	e.POST("/executeOperation", h.ExecuteOperation)
	e.POST("/replaceCode", h.ReplaceCode)

	e.GET("/getOperation", h.GetOperation)
	e.GET("/getOperations", h.GetOperations)
	e.GET("/hasConfirmed", h.HasConfirmed)
	e.GET("/getSigners", h.GetSigners)
	e.GET("/getImplementation", h.GetImplementation)

	e.POST("/requestTransfer", h.RequestTransfer)
	e.POST("/agentCall", h.AgentCall)

	e.GET("/getTransferRequest", h.GetTransferRequest)
	e.GET("/getTransferRequests", h.GetTransferRequests)
	e.GET("/getAccount", h.GetAccount)
	e.GET("/getFeeParameters", h.GetFeeParameters)
	e.GET("/getTotalSupply", h.GetTotalSupply)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
