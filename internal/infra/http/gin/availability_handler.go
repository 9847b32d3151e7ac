package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayrates/internal/app/dto"
	availabilityapp "stayrates/internal/app/handlers/availability"
	"stayrates/internal/app/queries"
	"stayrates/internal/domain/shared/daterange"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	from, err := daterange.ParseDate(c.Query("from"))
	if err != nil {
		badRequest(c, fmt.Errorf("from: %w", err))
		return
	}
	to, err := daterange.ParseDate(c.Query("to"))
	if err != nil {
		badRequest(c, fmt.Errorf("to: %w", err))
		return
	}
	query := availabilityapp.GetCalendarQuery{ApartmentID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
