package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayrates/internal/domain/booking"
	domainrates "stayrates/internal/domain/rates"
	"stayrates/internal/domain/shared/daterange"
)

const (
	colApartments = "apartments"
	colSeasons    = "season_rules"
	colEvents     = "event_rules"
	colDiscounts  = "discount_rules"
	colOverrides  = "availability_overrides"
	colBookings   = "bookings"
)

// RateStore reads pricing rules and bookings. Reads made with a context
// carrying a session run inside that session's transaction.
type RateStore struct {
	db              *mongo.Database
	defaultTimeZone string
}

func NewRateStore(db *mongo.Database, defaultTimeZone string) *RateStore {
	return &RateStore{db: db, defaultTimeZone: defaultTimeZone}
}

// EnsureIndexes creates the lookup indexes the snapshot queries rely on.
func (s *RateStore) EnsureIndexes(ctx context.Context) error {
	byApartment := mongo.IndexModel{Keys: bson.D{{Key: "apartment_id", Value: 1}}}
	for _, name := range []string{colSeasons, colEvents, colDiscounts} {
		if _, err := s.db.Collection(name).Indexes().CreateOne(ctx, byApartment); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	overrides := mongo.IndexModel{
		Keys:    bson.D{{Key: "apartment_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.db.Collection(colOverrides).Indexes().CreateOne(ctx, overrides); err != nil {
		return fmt.Errorf("index %s: %w", colOverrides, err)
	}
	bookings := mongo.IndexModel{Keys: bson.D{{Key: "apartment_id", Value: 1}, {Key: "check_in", Value: 1}, {Key: "check_out", Value: 1}}}
	if _, err := s.db.Collection(colBookings).Indexes().CreateOne(ctx, bookings); err != nil {
		return fmt.Errorf("index %s: %w", colBookings, err)
	}
	return nil
}

func (s *RateStore) Apartment(ctx context.Context, id domainrates.ApartmentID) (domainrates.Apartment, error) {
	var doc apartmentDocument
	if err := s.db.Collection(colApartments).FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainrates.Apartment{}, fmt.Errorf("%w: %s", domainrates.ErrApartmentNotFound, id)
		}
		return domainrates.Apartment{}, fmt.Errorf("mongo: find apartment %s: %w", id, err)
	}
	return doc.toDomain(s.defaultTimeZone)
}

func (s *RateStore) SeasonRules(ctx context.Context, id domainrates.ApartmentID) ([]domainrates.SeasonPriceRule, error) {
	var docs []seasonDocument
	if err := findAll(ctx, s.db.Collection(colSeasons), bson.M{"apartment_id": string(id)}, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]domainrates.SeasonPriceRule, 0, len(docs))
	for _, d := range docs {
		r, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RateStore) EventRules(ctx context.Context, id domainrates.ApartmentID) ([]domainrates.EventPriceRule, error) {
	var docs []eventDocument
	if err := findAll(ctx, s.db.Collection(colEvents), bson.M{"apartment_id": string(id)}, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]domainrates.EventPriceRule, 0, len(docs))
	for _, d := range docs {
		r, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RateStore) DiscountRules(ctx context.Context, id domainrates.ApartmentID) ([]domainrates.DiscountRule, error) {
	var docs []discountDocument
	if err := findAll(ctx, s.db.Collection(colDiscounts), bson.M{"apartment_id": string(id)}, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]domainrates.DiscountRule, 0, len(docs))
	for _, d := range docs {
		r, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Overrides returns overrides dated inside window, oldest first per day so
// the most recent one wins downstream.
func (s *RateStore) Overrides(ctx context.Context, id domainrates.ApartmentID, window daterange.DateRange) ([]domainrates.AvailabilityOverride, error) {
	filter := bson.M{
		"apartment_id": string(id),
		"date": bson.M{
			"$gte": daterange.Format(window.CheckIn),
			"$lt":  daterange.Format(window.CheckOut),
		},
	}
	sort := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}})
	var docs []overrideDocument
	if err := findAll(ctx, s.db.Collection(colOverrides), filter, sort, &docs); err != nil {
		return nil, err
	}
	out := make([]domainrates.AvailabilityOverride, 0, len(docs))
	for _, d := range docs {
		ov, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ov)
	}
	return out, nil
}

// Bookings returns the apartment's bookings overlapping window.
func (s *RateStore) Bookings(ctx context.Context, id domainrates.ApartmentID, window daterange.DateRange) ([]domainbooking.Booking, error) {
	filter := bson.M{
		"apartment_id": string(id),
		"check_in":     bson.M{"$lt": daterange.Format(window.CheckOut)},
		"check_out":    bson.M{"$gt": daterange.Format(window.CheckIn)},
	}
	var docs []bookingDocument
	if err := findAll(ctx, s.db.Collection(colBookings), filter, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		b, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *RateStore) PutApartment(ctx context.Context, apt domainrates.Apartment) error {
	doc := newApartmentDocument(apt)
	update := bson.M{"$set": bson.M{
		"base_price":             doc.BasePrice,
		"cleaning_fee":           doc.CleaningFee,
		"service_fee_percentage": doc.ServiceFeePercentage,
		"min_stay_nights":        doc.MinStayNights,
		"max_stay_nights":        doc.MaxStayNights,
		"booking_horizon":        doc.BookingHorizon,
		"currency":               doc.Currency,
		"time_zone":              doc.TimeZone,
		"active":                 doc.Active,
	}}
	_, err := s.db.Collection(colApartments).UpdateByID(ctx, doc.ID, update, options.Update().SetUpsert(true))
	return err
}

func (s *RateStore) AddSeasonRule(ctx context.Context, rule domainrates.SeasonPriceRule) error {
	return replaceByID(ctx, s.db.Collection(colSeasons), rule.ID, newSeasonDocument(rule))
}

func (s *RateStore) AddEventRule(ctx context.Context, rule domainrates.EventPriceRule) error {
	return replaceByID(ctx, s.db.Collection(colEvents), rule.ID, newEventDocument(rule))
}

func (s *RateStore) AddDiscountRule(ctx context.Context, rule domainrates.DiscountRule) error {
	return replaceByID(ctx, s.db.Collection(colDiscounts), rule.ID, newDiscountDocument(rule))
}

// AddOverride replaces whatever override the apartment already has for that
// day, so reloading the same fixtures is a no-op.
func (s *RateStore) AddOverride(ctx context.Context, ov domainrates.AvailabilityOverride) error {
	doc := newOverrideDocument(ov, time.Now())
	filter := bson.M{"apartment_id": doc.ApartmentID, "date": doc.Date}
	_, err := s.db.Collection(colOverrides).ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: upsert %s %s/%s: %w", colOverrides, doc.ApartmentID, doc.Date, err)
	}
	return nil
}

func findAll(ctx context.Context, col *mongo.Collection, filter any, opts *options.FindOptions, out any) error {
	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = col.Find(ctx, filter, opts)
	} else {
		cur, err = col.Find(ctx, filter)
	}
	if err != nil {
		return fmt.Errorf("mongo: find %s: %w", col.Name(), err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("mongo: decode %s: %w", col.Name(), err)
	}
	return nil
}

func replaceByID(ctx context.Context, col *mongo.Collection, id string, doc any) error {
	_, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: upsert %s %s: %w", col.Name(), id, err)
	}
	return nil
}

var _ domainrates.Store = (*RateStore)(nil)
