package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Shootle/txtcoin/internal/model"
	"github.com/Shootle/txtcoin/internal/repository"
	"github.com/Shootle/txtcoin/internal/util"
	echo "github.com/labstack/echo/v4"
)

func listCommandsHandler(chRepo repository.CHCommandsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var outcome model.Outcome
		if raw := strings.TrimSpace(c.QueryParam("outcome")); raw != "" {
			tmp := model.Outcome(raw)
			if !tmp.Valid() {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown outcome"})
			}
			outcome = tmp
		}

		phone := util.NormalizePhone(strings.TrimSpace(c.QueryParam("phone")))

		events, err := chRepo.ListBySender(
			c.Request().Context(),
			phone,
			outcome,
			limit,
			offset,
		)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(events),
			"results": events,
		})
	}
}
