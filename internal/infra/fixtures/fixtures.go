package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	domainrates "stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

// Sink receives seeded apartments and rules. Both stores implement it.
type Sink interface {
	PutApartment(ctx context.Context, apt domainrates.Apartment) error
	AddSeasonRule(ctx context.Context, rule domainrates.SeasonPriceRule) error
	AddEventRule(ctx context.Context, rule domainrates.EventPriceRule) error
	AddDiscountRule(ctx context.Context, rule domainrates.DiscountRule) error
	AddOverride(ctx context.Context, ov domainrates.AvailabilityOverride) error
}

type File struct {
	Apartments []apartmentFixture `json:"apartments"`
	Seasons    []seasonFixture    `json:"season_rules"`
	Events     []eventFixture     `json:"event_rules"`
	Discounts  []discountFixture  `json:"discount_rules"`
	Overrides  []overrideFixture  `json:"overrides"`
}

type apartmentFixture struct {
	ID                   string          `json:"id"`
	BasePrice            int64           `json:"base_price"`
	CleaningFee          int64           `json:"cleaning_fee"`
	ServiceFeePercentage decimal.Decimal `json:"service_fee_percentage"`
	MinStayNights        int             `json:"min_stay_nights"`
	MaxStayNights        int             `json:"max_stay_nights"`
	BookingHorizon       string          `json:"booking_horizon"`
	Currency             string          `json:"currency"`
	TimeZone             string          `json:"time_zone"`
	Active               *bool           `json:"active"`
}

type seasonFixture struct {
	ID          string    `json:"id"`
	ApartmentID string    `json:"apartment_id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Priority    int       `json:"priority"`
	Active      *bool     `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type eventFixture struct {
	ID          string    `json:"id"`
	ApartmentID string    `json:"apartment_id"`
	EventName   string    `json:"event_name"`
	Price       int64     `json:"price"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Active      *bool     `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type discountFixture struct {
	ID          string          `json:"id"`
	ApartmentID string          `json:"apartment_id"`
	MinNights   int             `json:"min_nights"`
	Percentage  decimal.Decimal `json:"percentage"`
	Active      *bool           `json:"active"`
}

type overrideFixture struct {
	ApartmentID   string `json:"apartment_id"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	PriceOverride *int64 `json:"price_override"`
	Note          string `json:"note"`
}

// LoadFile reads fixtures from path into sink. A missing file is not an error.
func LoadFile(ctx context.Context, path string, sink Sink, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("fixtures file empty", "path", path)
		return nil
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	return Load(ctx, file, sink, logger)
}

// Load seeds every valid entry. Invalid entries are logged and skipped.
func Load(ctx context.Context, file File, sink Sink, logger *slog.Logger) error {
	for _, fx := range file.Apartments {
		apt, err := fx.toDomain()
		if err != nil {
			logger.Error("apartment fixture invalid", "apartment_id", fx.ID, "error", err)
			continue
		}
		if err := sink.PutApartment(ctx, apt); err != nil {
			return fmt.Errorf("store apartment %s: %w", fx.ID, err)
		}
		logger.Info("apartment fixture imported", "apartment_id", fx.ID)
	}
	for _, fx := range file.Seasons {
		start, end, err := parsePeriod(fx.StartDate, fx.EndDate)
		if err != nil {
			logger.Error("season fixture invalid", "rule_id", fx.ID, "error", err)
			continue
		}
		rule := domainrates.SeasonPriceRule{
			ID: fx.ID, ApartmentID: domainrates.ApartmentID(fx.ApartmentID), Name: fx.Name, Price: fx.Price,
			StartDate: start, EndDate: end, Priority: fx.Priority, Active: enabled(fx.Active), CreatedAt: fx.CreatedAt,
		}
		if err := sink.AddSeasonRule(ctx, rule); err != nil {
			return fmt.Errorf("store season rule %s: %w", fx.ID, err)
		}
	}
	for _, fx := range file.Events {
		start, end, err := parsePeriod(fx.StartDate, fx.EndDate)
		if err != nil {
			logger.Error("event fixture invalid", "rule_id", fx.ID, "error", err)
			continue
		}
		rule := domainrates.EventPriceRule{
			ID: fx.ID, ApartmentID: domainrates.ApartmentID(fx.ApartmentID), EventName: fx.EventName, Price: fx.Price,
			StartDate: start, EndDate: end, Active: enabled(fx.Active), CreatedAt: fx.CreatedAt,
		}
		if err := sink.AddEventRule(ctx, rule); err != nil {
			return fmt.Errorf("store event rule %s: %w", fx.ID, err)
		}
	}
	for _, fx := range file.Discounts {
		if fx.MinNights <= 0 || fx.Percentage.IsNegative() || fx.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			logger.Error("discount fixture invalid", "rule_id", fx.ID, "min_nights", fx.MinNights, "percentage", fx.Percentage.String())
			continue
		}
		rule := domainrates.DiscountRule{
			ID: fx.ID, ApartmentID: domainrates.ApartmentID(fx.ApartmentID), MinNights: fx.MinNights,
			Percentage: fx.Percentage, Active: enabled(fx.Active),
		}
		if err := sink.AddDiscountRule(ctx, rule); err != nil {
			return fmt.Errorf("store discount rule %s: %w", fx.ID, err)
		}
	}
	for _, fx := range file.Overrides {
		day, err := daterange.ParseDate(fx.Date)
		if err != nil {
			logger.Error("override fixture invalid", "apartment_id", fx.ApartmentID, "error", err)
			continue
		}
		status := domainrates.OverrideStatus(fx.Status)
		if status != domainrates.OverrideAvailable && status != domainrates.OverrideBlocked {
			logger.Error("override fixture invalid", "apartment_id", fx.ApartmentID, "status", fx.Status)
			continue
		}
		ov := domainrates.AvailabilityOverride{
			ApartmentID: domainrates.ApartmentID(fx.ApartmentID), Date: day, Status: status,
			PriceOverride: fx.PriceOverride, Note: fx.Note,
		}
		if err := sink.AddOverride(ctx, ov); err != nil {
			return fmt.Errorf("store override %s/%s: %w", fx.ApartmentID, fx.Date, err)
		}
	}
	return nil
}

func (fx apartmentFixture) toDomain() (domainrates.Apartment, error) {
	if fx.ID == "" || fx.Currency == "" {
		return domainrates.Apartment{}, errors.New("fixtures: apartment id and currency required")
	}
	if fx.BasePrice < 0 || fx.CleaningFee < 0 || fx.ServiceFeePercentage.IsNegative() {
		return domainrates.Apartment{}, errors.New("fixtures: negative amounts")
	}
	if fx.MaxStayNights != 0 && fx.MaxStayNights < fx.MinStayNights {
		return domainrates.Apartment{}, errors.New("fixtures: max stay below min stay")
	}
	apt := domainrates.Apartment{
		ID:                   domainrates.ApartmentID(fx.ID),
		BasePrice:            fx.BasePrice,
		CleaningFee:          fx.CleaningFee,
		ServiceFeePercentage: fx.ServiceFeePercentage,
		MinStayNights:        fx.MinStayNights,
		MaxStayNights:        fx.MaxStayNights,
		Currency:             fx.Currency,
		TimeZone:             fx.TimeZone,
		Active:               enabled(fx.Active),
	}
	if fx.TimeZone != "" {
		if _, err := time.LoadLocation(fx.TimeZone); err != nil {
			return domainrates.Apartment{}, fmt.Errorf("fixtures: time zone: %w", err)
		}
	}
	if fx.BookingHorizon != "" {
		horizon, err := daterange.ParseDate(fx.BookingHorizon)
		if err != nil {
			return domainrates.Apartment{}, err
		}
		apt.BookingHorizon = horizon
	}
	return apt, nil
}

func parsePeriod(start, end string) (time.Time, time.Time, error) {
	dr, err := daterange.Parse(start, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return dr.CheckIn, dr.CheckOut, nil
}

// enabled treats a missing flag as active.
func enabled(flag *bool) bool {
	return flag == nil || *flag
}

// DefaultPath picks the first fixtures file that exists.
func DefaultPath() string {
	candidates := []string{
		filepath.Join("data", "fixtures.json"),
		filepath.Join("..", "..", "data", "fixtures.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
