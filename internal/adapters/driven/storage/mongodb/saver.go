// Package mongodb saves channel descriptions to a MongoDB collection.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure Saver implements the interface.
var _ driven.Saver = (*Saver)(nil)

// Database and collection descriptions are written to.
const (
	DatabaseName   = "recap"
	CollectionName = "descriptions"
)

const disconnectTimeout = 5 * time.Second

// collection is the subset of *mongo.Collection used by the saver.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// conn is an open collection and the function that releases it.
type conn struct {
	coll       collection
	disconnect func(context.Context) error
}

type connectFunc func(ctx context.Context, uri string) (conn, error)

// Saver inserts description documents, keeping one client per URI.
type Saver struct {
	mu      sync.Mutex
	conns   map[string]conn
	connect connectFunc
	now     func() time.Time
}

// NewSaver creates a MongoDB saver.
func NewSaver() *Saver {
	return &Saver{
		conns:   make(map[string]conn),
		connect: connectMongo,
		now:     time.Now,
	}
}

// Name returns the saver name.
func (s *Saver) Name() string {
	return string(domain.SaveTargetMongoDB)
}

// Save inserts a document using destination as the connection URI.
func (s *Saver) Save(ctx context.Context, id, content, destination string) error {
	if destination == "" {
		return fmt.Errorf("%w: mongodb uri is required", domain.ErrInvalidInput)
	}

	c, err := s.conn(ctx, destination)
	if err != nil {
		return err
	}
	doc := bson.M{
		"channel_id":  id,
		"description": content,
		"saved_at":    s.now().UTC(),
	}
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert description: %w", err)
	}
	return nil
}

func (s *Saver) conn(ctx context.Context, uri string) (conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.conns[uri]; ok {
		return c, nil
	}
	c, err := s.connect(ctx, uri)
	if err != nil {
		return conn{}, err
	}
	s.conns[uri] = c
	return c, nil
}

// Close disconnects every client.
func (s *Saver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	var firstErr error
	for uri, c := range s.conns {
		if err := c.disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.conns, uri)
	}
	return firstErr
}

func connectMongo(ctx context.Context, uri string) (conn, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return conn{}, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return conn{}, fmt.Errorf("ping mongodb: %w", err)
	}
	return conn{
		coll:       client.Database(DatabaseName).Collection(CollectionName),
		disconnect: client.Disconnect,
	}, nil
}
