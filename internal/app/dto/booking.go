package dto

type BookingRequest struct {
	ApartmentID string `json:"apartment_id" binding:"required"`
	GuestID     string `json:"guest_id" binding:"required"`
	CheckIn     string `json:"check_in" binding:"required"`
	CheckOut    string `json:"check_out" binding:"required"`
}

type BookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Quote     Quote  `json:"quote"`
}
