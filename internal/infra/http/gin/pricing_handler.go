package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayrates/internal/app/dto"
	quotesapp "stayrates/internal/app/handlers/quotes"
	"stayrates/internal/app/queries"
	"stayrates/internal/domain/shared/daterange"
)

type PricingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h PricingHandler) Quote(c *gin.Context) {
	checkIn, err := daterange.ParseDate(c.Query("check_in"))
	if err != nil {
		badRequest(c, fmt.Errorf("check_in: %w", err))
		return
	}
	checkOut, err := daterange.ParseDate(c.Query("check_out"))
	if err != nil {
		badRequest(c, fmt.Errorf("check_out: %w", err))
		return
	}
	query := quotesapp.GetQuoteQuery{ApartmentID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[quotesapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Rate answers the nightly rate of one day; "today" means the current date at
// the property.
func (h PricingHandler) Rate(c *gin.Context) {
	query := quotesapp.GetRateQuery{ApartmentID: c.Param("id")}
	if raw := c.Param("date"); raw == "today" {
		query.Today = true
	} else {
		day, err := daterange.ParseDate(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		query.Date = day
	}
	result, err := queries.Ask[quotesapp.GetRateQuery, dto.Rate](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
