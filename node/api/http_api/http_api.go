package http_api

import (
	"context"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"

	"github.com/lidofinance/rta/node/api/http_api/router"
	"github.com/lidofinance/rta/node/config"
	"github.com/lidofinance/rta/node/modules/logger"
	"github.com/lidofinance/rta/node/services/node"
)

type RESTApiProvider struct {
	config       *config.HttpApiConfig
	echoInstance *echo.Echo
}

func NewRESTApiProvider(config *config.HttpApiConfig, node node.NodeService, l logger.Logger) *RESTApiProvider {
	p := &RESTApiProvider{
		config:       config,
		echoInstance: echo.New(),
	}

	p.echoInstance.HideBanner = true
	p.echoInstance.HidePort = true
	p.echoInstance.Debug = config.Debug

	p.echoInstance.HTTPErrorHandler = customHTTPErrorHandler(l)

	// Middlewares

	p.echoInstance.Use(echo_middleware.Recover())

	p.echoInstance.Use(requestLoggerMiddleware(l))

	p.echoInstance.Use(contextServiceMiddleware)

	router.SetRouter(p.echoInstance, node)

	return p
}

// Handler exposes the router, for tests and embedding.
func (p *RESTApiProvider) Handler() *echo.Echo {
	return p.echoInstance
}

func (p *RESTApiProvider) Start() error {
	return p.echoInstance.Start(p.config.ListenAddr)
}

func (p *RESTApiProvider) Stop(ctx context.Context) error {
	return p.echoInstance.Shutdown(ctx)
}
