package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayrates/internal/app/commands"
	"stayrates/internal/app/dto"
	bookingapp "stayrates/internal/app/handlers/booking"
	"stayrates/internal/domain/shared/daterange"
)

type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h BookingHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req dto.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := daterange.ParseDate(req.CheckIn)
	if err != nil {
		badRequest(c, fmt.Errorf("check_in: %w", err))
		return
	}
	checkOut, err := daterange.ParseDate(req.CheckOut)
	if err != nil {
		badRequest(c, fmt.Errorf("check_out: %w", err))
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		ApartmentID:     req.ApartmentID,
		GuestID:         req.GuestID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.BookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ BookingHTTP = BookingHandler{}
