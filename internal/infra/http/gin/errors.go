package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	availabilityapp "stayrates/internal/app/handlers/availability"
	bookingapp "stayrates/internal/app/handlers/booking"
	"stayrates/internal/domain/availability"
	domainbooking "stayrates/internal/domain/booking"
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

const unavailableMessage = "pricing temporarily unavailable"

// respondError maps application errors to HTTP answers. Anything unexpected
// is treated as a store failure: logged with its cause, reported as 503.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var stayErr *pricing.InvalidStayError
	var unavailable *bookingapp.DatesUnavailableError
	switch {
	case errors.As(err, &stayErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      stayErr.Error(),
			"constraint": string(stayErr.Constraint),
		})
	case errors.Is(err, availability.ErrInvalidRange),
		errors.Is(err, availabilityapp.ErrRangeTooLong),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, daterange.ErrInvalidDate),
		errors.Is(err, domainbooking.ErrGuestRequired),
		errors.Is(err, domainbooking.ErrApartmentUnset):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, rates.ErrApartmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "dates unavailable", "dates": unavailable.Dates})
	case errors.Is(err, bookingapp.ErrApartmentInactive),
		errors.Is(err, domainbooking.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed",
				"error", err,
				"path", c.FullPath(),
				"request_id", c.GetString("request_id"),
			)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": unavailableMessage})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
