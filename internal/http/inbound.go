package http

import (
	"context"
	"net/http"

	"github.com/Shootle/txtcoin/internal/http/middleware"
	"github.com/Shootle/txtcoin/internal/model"
	echo "github.com/labstack/echo/v4"
)

// InboundSink accepts a parsed inbound SMS for processing.
type InboundSink interface {
	Accept(ctx context.Context, msg model.Inbound) error
}

// Dispatcher runs a command message to completion, reply included.
type Dispatcher interface {
	Dispatch(ctx context.Context, sender, message string)
}

type inlineSink struct{ d Dispatcher }

// InlineSink dispatches each message inside the webhook request.
func InlineSink(d Dispatcher) InboundSink { return inlineSink{d: d} }

func (s inlineSink) Accept(ctx context.Context, msg model.Inbound) error {
	// the reply must go out even if the webhook caller hangs up
	s.d.Dispatch(context.WithoutCancel(ctx), msg.From, msg.Body)
	return nil
}

func inboundHandler(sink InboundSink) echo.HandlerFunc {
	return func(c echo.Context) error {
		msg, ok := middleware.InboundFromCtx(c)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		if err := sink.Accept(c.Request().Context(), msg); err != nil {
			c.Logger().Errorf("accept inbound sms failed: %v", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "try again"})
		}

		// empty ack, replies go out as separate messages
		return c.NoContent(http.StatusOK)
	}
}
