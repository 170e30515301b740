package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"renov-scraper/models"
	"renov-scraper/utils"
)

// MongoWriter persists canonical listings to a MongoDB collection, upserting
// on externalId.
type MongoWriter struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoWriter connects, pings with retries and ensures the collection
// indexes exist.
func NewMongoWriter(ctx context.Context, uri, dbName, collName string, retry *utils.RetryConfig) (*MongoWriter, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	if err := retry.Do("mongo-ping", func() error { return client.Ping(ctx, nil) }); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: %w", err)
	}

	mw := &MongoWriter{client: client, coll: client.Database(dbName).Collection(collName)}
	if err := mw.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ensure indexes: %w", err)
	}
	return mw, nil
}

func (mw *MongoWriter) ensureIndexes(ctx context.Context) error {
	_, err := mw.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "fingerprint", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "location.city", Value: 1}}},
		{Keys: bson.D{{Key: "propertyType", Value: 1}}},
		{Keys: bson.D{{Key: "renovationScore", Value: -1}}},
	})
	return err
}

// Write upserts each listing in a single unordered bulk write.
func (mw *MongoWriter) Write(ctx context.Context, listings []*models.Listing) error {
	writes := upsertModels(listings)
	if len(writes) == 0 {
		return nil
	}
	if _, err := mw.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("mongo: bulk upsert: %w", err)
	}
	return nil
}

func upsertModels(listings []*models.Listing) []mongo.WriteModel {
	writes := make([]mongo.WriteModel, 0, len(listings))
	for _, l := range listings {
		if l.ExternalID == "" {
			continue
		}
		set, created := listingDocument(l)
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"externalId": l.ExternalID}).
			SetUpdate(bson.M{
				"$set":         set,
				"$setOnInsert": bson.M{"createdAt": created},
			}).
			SetUpsert(true))
	}
	return writes
}

// listingDocument renders the $set part of an upsert. createdAt is returned
// separately so an existing document keeps its original value.
func listingDocument(l *models.Listing) (bson.M, time.Time) {
	created, updated := l.CreatedAt, l.UpdatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if updated.IsZero() {
		updated = created
	}

	doc := bson.M{
		"title":              l.Title,
		"description":        l.Description,
		"price":              l.Price,
		"location":           l.Location,
		"propertyType":       string(l.PropertyType),
		"sourceId":           l.SourceID,
		"sourceName":         l.SourceName,
		"sourceUrl":          l.SourceURL,
		"images":             l.Images,
		"renovationScore":    l.RenovationScore,
		"renovationKeywords": l.RenovationKeywords,
		"fingerprint":        l.Fingerprint,
		"status":             l.Status,
		"updatedAt":          updated,
	}
	for key, v := range map[string]*int{"surface": l.Surface, "rooms": l.Rooms, "bedrooms": l.Bedrooms} {
		if v != nil {
			doc[key] = *v
		}
	}
	return doc, created
}

// FingerprintOwners returns the externalId stored for each known fingerprint.
func (mw *MongoWriter) FingerprintOwners(ctx context.Context, fingerprints []string) (map[string]string, error) {
	owners := make(map[string]string)
	if len(fingerprints) == 0 {
		return owners, nil
	}

	opts := options.Find().
		SetProjection(bson.M{"fingerprint": 1, "externalId": 1}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := mw.coll.Find(ctx, bson.M{"fingerprint": bson.M{"$in": fingerprints}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: fingerprint lookup: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			Fingerprint string `bson:"fingerprint"`
			ExternalID  string `bson:"externalId"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongo: decode fingerprint: %w", err)
		}
		if _, seen := owners[row.Fingerprint]; !seen {
			owners[row.Fingerprint] = row.ExternalID
		}
	}
	return owners, cur.Err()
}

// FetchAll retrieves all stored listings for the insight report.
func (mw *MongoWriter) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	cur, err := mw.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: fetch all: %w", err)
	}
	defer cur.Close(ctx)

	var listings []*models.Listing
	if err := cur.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("mongo: decode listings: %w", err)
	}
	for _, l := range listings {
		l.PropertyType = l.PropertyType.Canonical()
	}
	return listings, nil
}

func (mw *MongoWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return mw.client.Disconnect(ctx)
}
