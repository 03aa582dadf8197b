package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/etnz/forecast"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// planDocument is how a plan is stored in MongoDB.
type planDocument struct {
	Name      string    `bson:"_id"`
	Plan      string    `bson:"plan"` // the JSON plan document
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore stores plans in a MongoDB collection, one document per plan.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *logrus.Logger
}

// NewMongoStore connects to uri and stores plans in db.coll.
func NewMongoStore(ctx context.Context, uri, db, coll string, log *logrus.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{"database": db, "collection": coll}).Info("connected to MongoDB")
	return &MongoStore{
		client:     client,
		collection: client.Database(db).Collection(coll),
		log:        log,
	}, nil
}

func (s *MongoStore) Load(ctx context.Context, name string) (*forecast.Plan, error) {
	var doc planDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find plan %q: %w", name, err)
	}
	return forecast.DecodePlan(strings.NewReader(doc.Plan))
}

func (s *MongoStore) Save(ctx context.Context, name string, p *forecast.Plan) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := forecast.EncodePlan(&buf, p); err != nil {
		return err
	}
	doc := planDocument{Name: name, Plan: buf.String(), UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": name}, doc, opts); err != nil {
		return fmt.Errorf("failed to save plan %q: %w", name, err)
	}
	s.log.WithField("plan", name).Debug("plan saved")
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("failed to delete plan %q: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer cursor.Close(ctx)

	var names []string
	for cursor.Next(ctx) {
		var doc planDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode plan document: %w", err)
		}
		names = append(names, doc.Name)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the database connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
