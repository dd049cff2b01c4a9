package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pfrederiksen/moviepost/internal/movie"
)

const (
	moviesCollection = "movies"
	connectTimeout   = 10 * time.Second
)

// movieDocument is the BSON shape of a stored movie
type movieDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Year      string             `bson:"year,omitempty"`
	Language  string             `bson:"language,omitempty"`
	Poster    string             `bson:"poster,omitempty"`
	Overview  string             `bson:"overview,omitempty"`
	Link      string             `bson:"link,omitempty"`
	Quality   string             `bson:"quality,omitempty"`
	Genres    []string           `bson:"genres,omitempty"`
	Rating    string             `bson:"rating,omitempty"`
	IMDbID    string             `bson:"imdb_id,omitempty"`
	Source    string             `bson:"source,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func toDocument(m *movie.Movie) movieDocument {
	return movieDocument{
		Title:     m.Title,
		Year:      m.Year,
		Language:  m.Language,
		Poster:    m.Poster,
		Overview:  m.Overview,
		Link:      m.Link,
		Quality:   m.Quality,
		Genres:    m.Genres,
		Rating:    m.Rating,
		IMDbID:    m.IMDbID,
		Source:    m.Source,
		CreatedAt: m.CreatedAt,
	}
}

func (d movieDocument) movie() *movie.Movie {
	return &movie.Movie{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Year:      d.Year,
		Language:  d.Language,
		Poster:    d.Poster,
		Overview:  d.Overview,
		Link:      d.Link,
		Quality:   d.Quality,
		Genres:    d.Genres,
		Rating:    d.Rating,
		IMDbID:    d.IMDbID,
		Source:    d.Source,
		CreatedAt: d.CreatedAt,
	}
}

// MongoStore keeps movies in MongoDB
type MongoStore struct {
	client *mongo.Client
	movies *mongo.Collection
}

// NewMongo connects to uri and uses the "movies" collection of database.
func NewMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	s := &MongoStore{
		client: client,
		movies: client.Database(database).Collection(moviesCollection),
	}

	_, err = s.movies.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("creating index: %w", err)
	}

	return s, nil
}

// Insert implements Store
func (s *MongoStore) Insert(ctx context.Context, m *movie.Movie) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	doc := toDocument(m)
	doc.ID = primitive.NewObjectID()
	if _, err := s.movies.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("inserting movie: %w", err)
	}

	m.ID = doc.ID.Hex()
	return m.ID, nil
}

// Get implements Store
func (s *MongoStore) Get(ctx context.Context, id string) (*movie.Movie, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var doc movieDocument
	err = s.movies.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding movie: %w", err)
	}
	return doc.movie(), nil
}

// List implements Store
func (s *MongoStore) List(ctx context.Context, opts ListOptions) ([]*movie.Movie, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(opts.limit()))

	cursor, err := s.movies.Find(ctx, titleFilter(opts.Query), findOpts)
	if err != nil {
		return nil, fmt.Errorf("listing movies: %w", err)
	}

	var docs []movieDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("reading movies: %w", err)
	}

	out := make([]*movie.Movie, len(docs))
	for i, d := range docs {
		out[i] = d.movie()
	}
	return out, nil
}

// titleFilter matches query anywhere in the title, ignoring case. Regex
// metacharacters in query are escaped.
func titleFilter(query string) bson.M {
	query = strings.TrimSpace(query)
	if query == "" {
		return bson.M{}
	}
	return bson.M{"title": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
}

// Count implements Store
func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.movies.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting movies: %w", err)
	}
	return n, nil
}

// Ping checks the connection to the primary
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
