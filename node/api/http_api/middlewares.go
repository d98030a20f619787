package http_api

import (
	"fmt"
	"net/http"
	"time"

	. "github.com/labstack/echo/v4"

	cs "github.com/lidofinance/rta/node/api/http_api/context_service"
	"github.com/lidofinance/rta/node/modules/logger"
	"github.com/lidofinance/rta/node/modules/metrics"
)

func contextServiceMiddleware(next HandlerFunc) HandlerFunc {
	return func(ctx Context) error {
		return next(cs.New(ctx))
	}
}

// requestLoggerMiddleware logs and counts every request once its response is
// written.
func requestLoggerMiddleware(l logger.Logger) MiddlewareFunc {
	l = l.With("http")
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			started := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			metrics.RecordHTTPRequest(c.Request().Method, c.Path(), status)

			event := l.Debug()
			if status >= http.StatusInternalServerError {
				event = l.Error()
			}
			event.
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Str("principal", c.Request().Header.Get(cs.PrincipalHeader)).
				Int("status", status).
				Dur("latency", time.Since(started)).
				Msg("request")
			return nil
		}
	}
}

// Custom error handler
func customHTTPErrorHandler(l logger.Logger) HTTPErrorHandler {
	return func(err error, c Context) {
		var code int
		csError, ok := err.(*cs.CSErrorResp)
		if ok {
			code = csError.Status
			if code == 0 {
				code = http.StatusBadRequest
			}
		} else if he, ok := err.(*HTTPError); ok {
			code = he.Code
			csError = &cs.CSErrorResp{
				Status:       code,
				Result:       struct{}{},
				ErrorMessage: fmt.Sprintf("%v", he.Message),
			}
		} else {
			code = cs.StatusOf(err)
			csError = cs.NewErrorResp(code, err)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, csError)
			}
			if err != nil {
				l.Error().Err(err).Msg("failed to write error response")
			}
		}
	}
}
