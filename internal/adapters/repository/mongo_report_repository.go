package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

const reportsCollection = "prediction_reports"

var _ domain.ReportRepository = (*MongoReportRepository)(nil)

type reportDocument struct {
	ID                         string    `bson:"_id"`
	UserID                     string    `bson:"user_id"`
	MonthlyPrediction          float64   `bson:"monthly_prediction"`
	YearlyPrediction           float64   `bson:"yearly_prediction"`
	TrendAnalysis              string    `bson:"trend_analysis"`
	RecommendedReductionTarget float64   `bson:"recommended_reduction_target"`
	ActivityCount              int       `bson:"activity_count"`
	GeneratedAt                time.Time `bson:"generated_at"`
}

func toReportDocument(r *domain.PredictionReport) reportDocument {
	return reportDocument{
		ID:                         r.ID,
		UserID:                     r.UserID,
		MonthlyPrediction:          r.MonthlyPrediction,
		YearlyPrediction:           r.YearlyPrediction,
		TrendAnalysis:              r.TrendAnalysis,
		RecommendedReductionTarget: r.RecommendedReductionTarget,
		ActivityCount:              r.ActivityCount,
		GeneratedAt:                r.GeneratedAt,
	}
}

func (d reportDocument) toDomain() *domain.PredictionReport {
	return &domain.PredictionReport{
		ID:     d.ID,
		UserID: d.UserID,
		Prediction: domain.Prediction{
			MonthlyPrediction:          d.MonthlyPrediction,
			YearlyPrediction:           d.YearlyPrediction,
			TrendAnalysis:              d.TrendAnalysis,
			RecommendedReductionTarget: d.RecommendedReductionTarget,
		},
		ActivityCount: d.ActivityCount,
		GeneratedAt:   d.GeneratedAt.UTC(),
	}
}

type MongoReportRepository struct {
	collection *mongo.Collection
}

func NewMongoReportRepository(db *mongo.Database) *MongoReportRepository {
	return &MongoReportRepository{collection: db.Collection(reportsCollection)}
}

// EnsureIndexes creates the user/date index used by Latest and List.
func (r *MongoReportRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "generated_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("repository: create report index: %w", err)
	}
	return nil
}

func (r *MongoReportRepository) Save(ctx context.Context, report *domain.PredictionReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	if _, err := r.collection.InsertOne(ctx, toReportDocument(report)); err != nil {
		return fmt.Errorf("repository: save report failed: %w", err)
	}
	return nil
}

func (r *MongoReportRepository) Latest(ctx context.Context, userID string) (*domain.PredictionReport, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})

	var doc reportDocument
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("repository: latest report failed: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoReportRepository) List(ctx context.Context, userID string, limit int) ([]*domain.PredictionReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "generated_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("repository: list reports failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reportDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repository: decode reports failed: %w", err)
	}

	reports := make([]*domain.PredictionReport, 0, len(docs))
	for _, d := range docs {
		reports = append(reports, d.toDomain())
	}
	return reports, nil
}
