package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domainbooking "stayrates/internal/domain/booking"
	domainrates "stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

// Days are stored as YYYY-MM-DD strings, which sort and compare like the
// dates they name. Percentages are stored as decimal strings.

type apartmentDocument struct {
	ID                   string `bson:"_id"`
	BasePrice            int64  `bson:"base_price"`
	CleaningFee          int64  `bson:"cleaning_fee"`
	ServiceFeePercentage string `bson:"service_fee_percentage"`
	MinStayNights        int    `bson:"min_stay_nights"`
	MaxStayNights        int    `bson:"max_stay_nights"`
	BookingHorizon       string `bson:"booking_horizon,omitempty"`
	Currency             string `bson:"currency"`
	TimeZone             string `bson:"time_zone,omitempty"`
	Active               bool   `bson:"active"`
	BookingSeq           int64  `bson:"booking_seq"`
}

func newApartmentDocument(a domainrates.Apartment) apartmentDocument {
	doc := apartmentDocument{
		ID:                   string(a.ID),
		BasePrice:            a.BasePrice,
		CleaningFee:          a.CleaningFee,
		ServiceFeePercentage: a.ServiceFeePercentage.String(),
		MinStayNights:        a.MinStayNights,
		MaxStayNights:        a.MaxStayNights,
		Currency:             a.Currency,
		TimeZone:             a.TimeZone,
		Active:               a.Active,
	}
	if !a.BookingHorizon.IsZero() {
		doc.BookingHorizon = daterange.Format(a.BookingHorizon)
	}
	return doc
}

func (d apartmentDocument) toDomain(defaultTimeZone string) (domainrates.Apartment, error) {
	fee, err := parseDecimal(d.ServiceFeePercentage)
	if err != nil {
		return domainrates.Apartment{}, fmt.Errorf("apartment %s service fee: %w", d.ID, err)
	}
	apt := domainrates.Apartment{
		ID:                   domainrates.ApartmentID(d.ID),
		BasePrice:            d.BasePrice,
		CleaningFee:          d.CleaningFee,
		ServiceFeePercentage: fee,
		MinStayNights:        d.MinStayNights,
		MaxStayNights:        d.MaxStayNights,
		Currency:             d.Currency,
		TimeZone:             d.TimeZone,
		Active:               d.Active,
	}
	if apt.TimeZone == "" {
		apt.TimeZone = defaultTimeZone
	}
	if d.BookingHorizon != "" {
		if apt.BookingHorizon, err = daterange.ParseDate(d.BookingHorizon); err != nil {
			return domainrates.Apartment{}, fmt.Errorf("apartment %s horizon: %w", d.ID, err)
		}
	}
	return apt, nil
}

type seasonDocument struct {
	ID          string    `bson:"_id"`
	ApartmentID string    `bson:"apartment_id"`
	Name        string    `bson:"name"`
	Price       int64     `bson:"price"`
	StartDate   string    `bson:"start_date"`
	EndDate     string    `bson:"end_date"`
	Priority    int       `bson:"priority"`
	Active      bool      `bson:"active"`
	CreatedAt   time.Time `bson:"created_at"`
}

func newSeasonDocument(r domainrates.SeasonPriceRule) seasonDocument {
	return seasonDocument{
		ID:          r.ID,
		ApartmentID: string(r.ApartmentID),
		Name:        r.Name,
		Price:       r.Price,
		StartDate:   daterange.Format(r.StartDate),
		EndDate:     daterange.Format(r.EndDate),
		Priority:    r.Priority,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (d seasonDocument) toDomain() (domainrates.SeasonPriceRule, error) {
	start, end, err := parsePeriod(d.StartDate, d.EndDate)
	if err != nil {
		return domainrates.SeasonPriceRule{}, fmt.Errorf("season rule %s: %w", d.ID, err)
	}
	return domainrates.SeasonPriceRule{
		ID:          d.ID,
		ApartmentID: domainrates.ApartmentID(d.ApartmentID),
		Name:        d.Name,
		Price:       d.Price,
		StartDate:   start,
		EndDate:     end,
		Priority:    d.Priority,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt.UTC(),
	}, nil
}

type eventDocument struct {
	ID          string    `bson:"_id"`
	ApartmentID string    `bson:"apartment_id"`
	EventName   string    `bson:"event_name"`
	Price       int64     `bson:"price"`
	StartDate   string    `bson:"start_date"`
	EndDate     string    `bson:"end_date"`
	Active      bool      `bson:"active"`
	CreatedAt   time.Time `bson:"created_at"`
}

func newEventDocument(r domainrates.EventPriceRule) eventDocument {
	return eventDocument{
		ID:          r.ID,
		ApartmentID: string(r.ApartmentID),
		EventName:   r.EventName,
		Price:       r.Price,
		StartDate:   daterange.Format(r.StartDate),
		EndDate:     daterange.Format(r.EndDate),
		Active:      r.Active,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func (d eventDocument) toDomain() (domainrates.EventPriceRule, error) {
	start, end, err := parsePeriod(d.StartDate, d.EndDate)
	if err != nil {
		return domainrates.EventPriceRule{}, fmt.Errorf("event rule %s: %w", d.ID, err)
	}
	return domainrates.EventPriceRule{
		ID:          d.ID,
		ApartmentID: domainrates.ApartmentID(d.ApartmentID),
		EventName:   d.EventName,
		Price:       d.Price,
		StartDate:   start,
		EndDate:     end,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt.UTC(),
	}, nil
}

type discountDocument struct {
	ID          string `bson:"_id"`
	ApartmentID string `bson:"apartment_id"`
	MinNights   int    `bson:"min_nights"`
	Percentage  string `bson:"percentage"`
	Active      bool   `bson:"active"`
}

func newDiscountDocument(r domainrates.DiscountRule) discountDocument {
	return discountDocument{
		ID:          r.ID,
		ApartmentID: string(r.ApartmentID),
		MinNights:   r.MinNights,
		Percentage:  r.Percentage.String(),
		Active:      r.Active,
	}
}

func (d discountDocument) toDomain() (domainrates.DiscountRule, error) {
	pct, err := parseDecimal(d.Percentage)
	if err != nil {
		return domainrates.DiscountRule{}, fmt.Errorf("discount rule %s: %w", d.ID, err)
	}
	return domainrates.DiscountRule{
		ID:          d.ID,
		ApartmentID: domainrates.ApartmentID(d.ApartmentID),
		MinNights:   d.MinNights,
		Percentage:  pct,
		Active:      d.Active,
	}, nil
}

type overrideDocument struct {
	ApartmentID   string    `bson:"apartment_id"`
	Date          string    `bson:"date"`
	Status        string    `bson:"status"`
	PriceOverride *int64    `bson:"price_override,omitempty"`
	Note          string    `bson:"note,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
}

func newOverrideDocument(ov domainrates.AvailabilityOverride, createdAt time.Time) overrideDocument {
	return overrideDocument{
		ApartmentID:   string(ov.ApartmentID),
		Date:          daterange.Format(ov.Date),
		Status:        string(ov.Status),
		PriceOverride: ov.PriceOverride,
		Note:          ov.Note,
		CreatedAt:     createdAt.UTC(),
	}
}

func (d overrideDocument) toDomain() (domainrates.AvailabilityOverride, error) {
	day, err := daterange.ParseDate(d.Date)
	if err != nil {
		return domainrates.AvailabilityOverride{}, fmt.Errorf("override %s/%s: %w", d.ApartmentID, d.Date, err)
	}
	return domainrates.AvailabilityOverride{
		ApartmentID:   domainrates.ApartmentID(d.ApartmentID),
		Date:          day,
		Status:        domainrates.OverrideStatus(d.Status),
		PriceOverride: d.PriceOverride,
		Note:          d.Note,
	}, nil
}

type bookingDocument struct {
	ID          string                      `bson:"_id"`
	ApartmentID string                      `bson:"apartment_id"`
	GuestID     string                      `bson:"guest_id"`
	CheckIn     string                      `bson:"check_in"`
	CheckOut    string                      `bson:"check_out"`
	Status      string                      `bson:"status"`
	Quote       domainbooking.QuoteSnapshot `bson:"quote"`
	CreatedAt   time.Time                   `bson:"created_at"`
	UpdatedAt   time.Time                   `bson:"updated_at"`
	Version     int64                       `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:          string(b.ID),
		ApartmentID: b.ApartmentID,
		GuestID:     b.GuestID,
		CheckIn:     daterange.Format(b.Range.CheckIn),
		CheckOut:    daterange.Format(b.Range.CheckOut),
		Status:      string(b.Status),
		Quote:       b.Quote,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
		Version:     b.Version,
	}
}

func (d bookingDocument) toDomain() (*domainbooking.Booking, error) {
	dr, err := daterange.Parse(d.CheckIn, d.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", d.ID, err)
	}
	return &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		ApartmentID: d.ApartmentID,
		GuestID:     d.GuestID,
		Range:       dr,
		Status:      domainbooking.Status(d.Status),
		Quote:       d.Quote,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
	}, nil
}

func parsePeriod(start, end string) (time.Time, time.Time, error) {
	s, err := daterange.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := daterange.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
