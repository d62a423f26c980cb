package middleware

import (
	"net/http"
	"strings"

	"github.com/Shootle/txtcoin/internal/model"
	"github.com/Shootle/txtcoin/internal/util"
	echo "github.com/labstack/echo/v4"
)

const ctxInbound = "inbound"

// inboundReq accepts both Twilio style form posts and JSON.
type inboundReq struct {
	From       string `json:"From" form:"From"`
	Body       string `json:"Body" form:"Body"`
	MessageSid string `json:"MessageSid" form:"MessageSid"`
}

// InboundFromCtx extracts the message parsed by InboundParser.
func InboundFromCtx(c echo.Context) (model.Inbound, bool) {
	msg, ok := c.Get(ctxInbound).(model.Inbound)
	return msg, ok
}

// InboundParser binds the webhook payload, normalizes the sender and stores
// the message in the echo context for the following middlewares.
func InboundParser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var req inboundReq
			if err := c.Bind(&req); err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
			}
			from := util.NormalizePhone(req.From)
			if from == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing sender"})
			}
			c.Set(ctxInbound, model.Inbound{
				From: from,
				Body: strings.TrimSpace(req.Body),
				SID:  strings.TrimSpace(req.MessageSid),
			})
			return next(c)
		}
	}
}
