package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "stayrates/internal/domain/booking"
)

type BookingRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{db: db, col: db.Collection(colBookings)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", domainbooking.ErrBookingNotFound, id)
		}
		return nil, err
	}
	return doc.toDomain()
}

// Save upserts the booking guarded by its version. It also bumps the
// apartment's booking sequence, so two transactions booking the same
// apartment write-conflict and one of them aborts.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || isWriteConflict(err) {
			return fmt.Errorf("mongo: save %s: %w", doc.ID, domainbooking.ErrConcurrentUpdate)
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return fmt.Errorf("mongo: save %s: %w", doc.ID, domainbooking.ErrConcurrentUpdate)
	}
	if _, err := r.db.Collection(colApartments).UpdateByID(ctx, b.ApartmentID, bson.M{"$inc": bson.M{"booking_seq": 1}}); err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("mongo: bump booking sequence: %w", domainbooking.ErrConcurrentUpdate)
		}
		return fmt.Errorf("mongo: bump booking sequence: %w", err)
	}
	b.Version = doc.Version
	return nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)

// isWriteConflict reports whether err is a transaction write conflict that
// the server labels as retryable.
func isWriteConflict(err error) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorLabel("TransientTransactionError")
}
