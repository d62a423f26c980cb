package http

import (
	"errors"
	"net/http"

	"github.com/Shootle/txtcoin/internal/bitcoin"
	"github.com/Shootle/txtcoin/internal/qr"
	echo "github.com/labstack/echo/v4"
)

func qrHandler(svc *qr.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		address := c.Param("address")
		if !bitcoin.IsExactAddress(address) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}

		png, err := svc.Image(c.Request().Context(), address)
		if errors.Is(err, qr.ErrNotFound) {
			// only account creation stores images; anyone can hit this route
			if png, err = svc.Render(address); err == nil {
				c.Response().Header().Set("Cache-Control", "public, max-age=300")
				return c.Blob(http.StatusOK, "image/png", png)
			}
		}
		if err != nil {
			c.Logger().Errorf("qr lookup failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "qr unavailable"})
		}

		c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		return c.Blob(http.StatusOK, "image/png", png)
	}
}
