package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stationdash/internal/domain/models"
)

const snapshotCollection = "kpi_snapshots"

// Repository defines the interface for KPI snapshot storage.
type Repository interface {
	SaveKPISnapshots(ctx context.Context, snapshots []models.KPISnapshot) error
	ListKPISnapshots(ctx context.Context, q SnapshotQuery) ([]models.KPISnapshot, error)
}

// SnapshotQuery selects stored snapshots. Zero fields do not filter.
type SnapshotQuery struct {
	Metric string
	Branch string
	From   time.Time
	To     time.Time
	Limit  int64
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: snapshotCollection,
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}, {Key: "branch", Value: 1}, {Key: "metric", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot index: %w", err)
	}
	return nil
}

// SaveKPISnapshots upserts one document per (date, branch, metric), so a
// rerun of the same day replaces the earlier figures.
func (r *MongoDBRepository) SaveKPISnapshots(ctx context.Context, snapshots []models.KPISnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(snapshots))
	for _, snap := range snapshots {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(snapshotKey(snap)).
			SetReplacement(snap).
			SetUpsert(true))
	}

	if _, err := r.collection().BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to upsert kpi snapshots: %w", err)
	}
	return nil
}

// ListKPISnapshots returns matching snapshots, newest first.
func (r *MongoDBRepository) ListKPISnapshots(ctx context.Context, q SnapshotQuery) ([]models.KPISnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "metric", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := r.collection().Find(ctx, snapshotFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query kpi snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.KPISnapshot
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode kpi snapshots: %w", err)
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func snapshotKey(snap models.KPISnapshot) bson.D {
	return bson.D{
		{Key: "date", Value: snap.Date},
		{Key: "branch", Value: snap.Branch},
		{Key: "metric", Value: snap.Metric},
	}
}

func snapshotFilter(q SnapshotQuery) bson.D {
	filter := bson.D{}
	if q.Metric != "" {
		filter = append(filter, bson.E{Key: "metric", Value: q.Metric})
	}
	if q.Branch != "" {
		filter = append(filter, bson.E{Key: "branch", Value: q.Branch})
	}

	dateRange := bson.D{}
	if !q.From.IsZero() {
		dateRange = append(dateRange, bson.E{Key: "$gte", Value: q.From})
	}
	if !q.To.IsZero() {
		dateRange = append(dateRange, bson.E{Key: "$lte", Value: q.To})
	}
	if len(dateRange) > 0 {
		filter = append(filter, bson.E{Key: "date", Value: dateRange})
	}
	return filter
}
