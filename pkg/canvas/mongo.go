package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoCollection = "canvases"

// MongoStore keeps one document per canvas. Drawings are stored as JSON
// strings so their content is never reinterpreted as BSON.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type canvasDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Drawings  []string  `bson:"drawings,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toDoc(c *Canvas) canvasDoc {
	d := canvasDoc{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	d.Drawings = drawingStrings(c.Drawings)
	return d
}

func (d canvasDoc) canvas() *Canvas {
	drawings := make([]json.RawMessage, len(d.Drawings))
	for i, s := range d.Drawings {
		drawings[i] = json.RawMessage(s)
	}
	return &Canvas{ID: d.ID, Name: d.Name, Drawings: drawings, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func drawingStrings(drawings []json.RawMessage) []string {
	out := make([]string, len(drawings))
	for i, d := range drawings {
		out[i] = string(d)
	}
	return out
}

// NewMongoStore connects to uri and uses the canvases collection of
// database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
	}, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "drawings", Value: 0}}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	var docs []canvasDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}

	list := make([]Summary, len(docs))
	for i, d := range docs {
		list[i] = d.canvas().Summary()
	}
	return list, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Canvas, error) {
	var d canvasDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	return d.canvas(), nil
}

func (s *MongoStore) Create(ctx context.Context, name string, drawings []json.RawMessage) (*Canvas, error) {
	c, err := newCanvas(name, drawings)
	if err != nil {
		return nil, err
	}
	if _, err := s.coll.InsertOne(ctx, toDoc(c)); err != nil {
		return nil, fmt.Errorf("store canvas: %w", err)
	}
	return c, nil
}

func (s *MongoStore) Replace(ctx context.Context, id, name string, drawings []json.RawMessage) error {
	// Validate a rename the same way the other backends do.
	probe := &Canvas{}
	if err := probe.apply(name, drawings); err != nil {
		return err
	}

	set := bson.D{
		{Key: "drawings", Value: drawingStrings(drawings)},
		{Key: "updated_at", Value: probe.UpdatedAt},
	}
	if probe.Name != "" {
		set = append(set, bson.E{Key: "name", Value: probe.Name})
	}

	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("replace canvas: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete canvas: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close disconnects from the server.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
