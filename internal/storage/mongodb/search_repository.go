package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

// searchResultLimit caps full-text results per query
const searchResultLimit = 10

// SearchRepository implements storage.SearchRepository using a MongoDB
// text index over the search service's local collection.
type SearchRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewSearchRepository creates a new MongoDB-backed search repository and
// ensures the text index exists.
func NewSearchRepository(mongoURI, database, collection string) (*SearchRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}

	r := &SearchRepository{
		client:     client,
		database:   database,
		collection: collection,
	}

	// Text index over content backs the $text queries
	_, err = r.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "content", Value: "text"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create text index: %w", err)
	}

	return r, nil
}

func (r *SearchRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// Index upserts a search document keyed by post id, so replaying the same
// post.created event leaves the index unchanged.
func (r *SearchRepository) Index(ctx context.Context, doc *domain.SearchDoc) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.coll().UpdateOne(
		ctx,
		bson.M{"_id": doc.PostID},
		bson.M{"$set": doc},
		opts,
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

// Remove deletes the document for a post; deleting an absent document is
// a no-op so redelivered post.deleted events are safe.
func (r *SearchRepository) Remove(ctx context.Context, postID string) error {
	if _, err := r.coll().DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// Search runs a $text query sorted by text score, best matches first
func (r *SearchRepository) Search(ctx context.Context, query string) ([]*domain.SearchDoc, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}
	projection := bson.M{"score": bson.M{"$meta": "textScore"}}

	opts := options.Find().
		SetProjection(projection).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(searchResultLimit)

	cursor, err := r.coll().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to run search query: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*domain.SearchDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	return docs, nil
}

// Close closes the MongoDB connection
func (r *SearchRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
