package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spec-kit/smartcity-api/internal/domain"
	"github.com/spec-kit/smartcity-api/internal/persistence"
)

// ReportFilter narrows report listings. A nil UserID lists every report.
type ReportFilter struct {
	UserID *string
}

// ReportRepository encapsulates report persistence.
// Implementations make no ordering guarantee for List.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	List(ctx context.Context, filter ReportFilter) ([]domain.Report, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReportStatus, updatedAt time.Time) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
}

type reportDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Description string              `bson:"description"`
	Latitude    float64             `bson:"latitude"`
	Longitude   float64             `bson:"longitude"`
	Status      int                 `bson:"status"`
	Image       []byte              `bson:"image"`
	UserID      *primitive.ObjectID `bson:"userId"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   *time.Time          `bson:"updatedAt,omitempty"`
}

func newReportDocument(report *domain.Report) reportDocument {
	doc := reportDocument{
		Description: report.Description,
		Latitude:    report.Latitude,
		Longitude:   report.Longitude,
		Status:      int(report.Status),
		Image:       report.Image,
		CreatedAt:   report.CreatedAt,
		UpdatedAt:   report.UpdatedAt,
	}
	if report.UserID != nil {
		if oid, err := primitive.ObjectIDFromHex(*report.UserID); err == nil {
			doc.UserID = &oid
		}
	}
	return doc
}

func (d *reportDocument) toDomain() domain.Report {
	report := domain.Report{
		ID:          d.ID.Hex(),
		Description: d.Description,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		Status:      domain.ReportStatus(d.Status),
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.UserID != nil {
		hex := d.UserID.Hex()
		report.UserID = &hex
	}
	return report
}

type mongoReportRepository struct {
	coll *mongo.Collection
}

// NewMongoReportRepository returns a document-store-backed implementation.
func NewMongoReportRepository(db *mongo.Database) ReportRepository {
	if db == nil {
		return &mongoReportRepository{}
	}
	return &mongoReportRepository{coll: db.Collection(persistence.ReportsCollection)}
}

func (r *mongoReportRepository) Create(ctx context.Context, report *domain.Report) error {
	if r.coll == nil {
		return ErrStoreUnavailable
	}
	res, err := r.coll.InsertOne(ctx, newReportDocument(report))
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		report.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReportRepository) List(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	if r.coll == nil {
		return nil, ErrStoreUnavailable
	}
	query := bson.M{}
	if filter.UserID != nil {
		oid, err := primitive.ObjectIDFromHex(*filter.UserID)
		if err != nil {
			return []domain.Report{}, nil
		}
		query["userId"] = oid
	}

	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []reportDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]domain.Report, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}
	return result, nil
}

func (r *mongoReportRepository) UpdateStatus(ctx context.Context, id string, status domain.ReportStatus, updatedAt time.Time) (*domain.Report, error) {
	if r.coll == nil {
		return nil, ErrStoreUnavailable
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	update := bson.M{"$set": bson.M{"status": int(status), "updatedAt": updatedAt}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc reportDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	report := doc.toDomain()
	return &report, nil
}

func (r *mongoReportRepository) Delete(ctx context.Context, id string) error {
	if r.coll == nil {
		return ErrStoreUnavailable
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
