package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vaultcast/storefront-backend/pkg/enums"
)

// recordDocument is the BSON shape of a payment record.
type recordDocument struct {
	ID              string               `bson:"_id"`
	ProductID       string               `bson:"product_id"`
	ProductTitle    string               `bson:"product_title"`
	BuyerSessionID  string               `bson:"buyer_session_id,omitempty"`
	Amount          primitive.Decimal128 `bson:"amount"`
	Currency        string               `bson:"currency"`
	Status          string               `bson:"status"`
	ExternalOrderID *string              `bson:"external_order_id,omitempty"`
	ExternalPayerID *string              `bson:"external_payer_id,omitempty"`
	FailureReason   *string              `bson:"failure_reason,omitempty"`
	CreatedAt       time.Time            `bson:"created_at"`
	CompletedAt     *time.Time           `bson:"completed_at,omitempty"`
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository stores payment records in the given collection.
func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

// EnsureMongoIndexes creates the indexes the list queries rely on.
func EnsureMongoIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return err
}

func (r *mongoRepository) Insert(ctx context.Context, record *Record) error {
	doc, err := toDocument(record)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, doc)
	return err
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*Record, error) {
	var doc recordDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errRecordNotFound
		}
		return nil, err
	}
	return fromDocument(doc)
}

func (r *mongoRepository) TransitionFromPending(ctx context.Context, id string, update statusUpdate) (*Record, error) {
	set := bson.M{"status": string(update.Status)}
	if update.ExternalOrderID != nil {
		set["external_order_id"] = *update.ExternalOrderID
	}
	if update.ExternalPayerID != nil {
		set["external_payer_id"] = *update.ExternalPayerID
	}
	if update.FailureReason != nil {
		set["failure_reason"] = *update.FailureReason
	}
	if update.CompletedAt != nil {
		set["completed_at"] = *update.CompletedAt
	}

	filter := bson.M{"_id": id, "status": string(enums.PaymentStatusPending)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc recordDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err == nil {
		return fromDocument(doc)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errRecordNotFound
	}
	return nil, errNotPending
}

func (r *mongoRepository) ListByProduct(ctx context.Context, productID string) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{"product_id": productID}, opts)
}

func (r *mongoRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	filter := bson.M{"status": string(enums.PaymentStatusPending), "created_at": bson.M{"$lt": cutoff}}
	return r.find(ctx, filter, opts)
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Record, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		record, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *record)
	}
	return out, nil
}

func toDocument(record *Record) (recordDocument, error) {
	amount, err := primitive.ParseDecimal128(record.Amount.String())
	if err != nil {
		return recordDocument{}, fmt.Errorf("encode amount: %w", err)
	}
	return recordDocument{
		ID:              record.ID,
		ProductID:       record.ProductID,
		ProductTitle:    record.ProductTitle,
		BuyerSessionID:  record.BuyerSessionID,
		Amount:          amount,
		Currency:        string(record.Currency),
		Status:          string(record.Status),
		ExternalOrderID: record.ExternalOrderID,
		ExternalPayerID: record.ExternalPayerID,
		FailureReason:   record.FailureReason,
		CreatedAt:       record.CreatedAt.UTC(),
		CompletedAt:     record.CompletedAt,
	}, nil
}

func fromDocument(doc recordDocument) (*Record, error) {
	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	return &Record{
		ID:              doc.ID,
		ProductID:       doc.ProductID,
		ProductTitle:    doc.ProductTitle,
		BuyerSessionID:  doc.BuyerSessionID,
		Amount:          amount,
		Currency:        enums.Currency(doc.Currency),
		Status:          enums.PaymentStatus(doc.Status),
		ExternalOrderID: doc.ExternalOrderID,
		ExternalPayerID: doc.ExternalPayerID,
		FailureReason:   doc.FailureReason,
		CreatedAt:       doc.CreatedAt,
		CompletedAt:     doc.CompletedAt,
	}, nil
}
