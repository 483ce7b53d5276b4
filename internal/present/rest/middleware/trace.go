package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

// TraceID echoes the current trace id so operators can find a request's
// spans from its response.
func TraceID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sc := trace.SpanFromContext(c.Request().Context()).SpanContext()
		if sc.HasTraceID() {
			c.Response().Header().Set("trace-id", sc.TraceID().String())
		}
		return next(c)
	}
}
