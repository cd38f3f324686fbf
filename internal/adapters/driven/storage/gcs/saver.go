// Package gcs saves channel descriptions to a JSON array object in
// Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/custodia-labs/recap-cli/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/recap-cli/internal/core/domain"
	"github.com/custodia-labs/recap-cli/internal/core/ports/driven"
)

// Ensure Saver implements the interface.
var _ driven.Saver = (*Saver)(nil)

const scheme = "gs://"

// objects reads and conditionally writes whole objects.
type objects interface {
	// Read returns the object data and generation. A missing object
	// returns nil data and generation 0.
	Read(ctx context.Context, bucket, name string) ([]byte, int64, error)

	// Write replaces the object if its generation still matches.
	// Generation 0 requires that the object does not exist yet.
	Write(ctx context.Context, bucket, name string, data []byte, generation int64) error
}

// Saver appends descriptions to gs://bucket/object JSON arrays.
type Saver struct {
	mu         sync.Mutex
	objects    objects
	clientOpts []option.ClientOption
	now        func() time.Time
}

// Option configures a Saver.
type Option func(*Saver)

// WithClient uses an existing storage client.
func WithClient(client *storage.Client) Option {
	return func(s *Saver) {
		s.objects = &bucketObjects{client: client}
	}
}

// WithClientOptions passes options to the lazily created storage client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *Saver) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// AccessTokenEnv names the variable holding an OAuth2 access token that
// replaces application default credentials.
const AccessTokenEnv = "GOOGLE_OAUTH_ACCESS_TOKEN"

// WithAccessToken authenticates the lazily created client with a fixed
// OAuth2 bearer token. An empty token is ignored.
func WithAccessToken(token string) Option {
	return func(s *Saver) {
		if token == "" {
			return
		}
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		s.clientOpts = append(s.clientOpts, option.WithTokenSource(src))
	}
}

// NewSaver creates a GCS saver. Without WithClient, a client using
// application default credentials is created on first save.
func NewSaver(opts ...Option) *Saver {
	s := &Saver{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the saver name.
func (s *Saver) Name() string {
	return string(domain.SaveTargetGCS)
}

// Save reads the object at destination, appends a record and writes it back.
func (s *Saver) Save(ctx context.Context, id, content, destination string) error {
	bucket, name, err := ParseURL(destination)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	objs, err := s.client(ctx)
	if err != nil {
		return err
	}

	existing, generation, err := objs.Read(ctx, bucket, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", destination, err)
	}
	data, err := file.Append(existing, file.Record{
		ID:          id,
		Description: content,
		SavedAt:     s.now().Format(domain.SavedAtLayout),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", destination, err)
	}
	if err := objs.Write(ctx, bucket, name, data, generation); err != nil {
		return fmt.Errorf("write %s: %w", destination, err)
	}
	return nil
}

func (s *Saver) client(ctx context.Context) (objects, error) {
	if s.objects != nil {
		return s.objects, nil
	}
	client, err := storage.NewClient(ctx, s.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	s.objects = &bucketObjects{client: client, owned: true}
	return s.objects, nil
}

// Close releases a client created by the saver.
func (s *Saver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.objects.(*bucketObjects); ok && b.owned {
		s.objects = nil
		return b.client.Close()
	}
	return nil
}

// ParseURL splits gs://bucket/object into its bucket and object names.
func ParseURL(raw string) (bucket, name string, err error) {
	if !strings.HasPrefix(raw, scheme) {
		return "", "", fmt.Errorf("%w: %q is not a gs:// url", domain.ErrInvalidInput, raw)
	}
	bucket, name, _ = strings.Cut(strings.TrimPrefix(raw, scheme), "/")
	if bucket == "" || name == "" {
		return "", "", fmt.Errorf("%w: %q must be gs://bucket/object", domain.ErrInvalidInput, raw)
	}
	return bucket, name, nil
}

// bucketObjects implements objects over a storage client.
type bucketObjects struct {
	client *storage.Client
	owned  bool
}

func (b *bucketObjects) Read(ctx context.Context, bucket, name string) ([]byte, int64, error) {
	rc, err := b.client.Bucket(bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, 0, err
	}
	return data, rc.Attrs.Generation, nil
}

func (b *bucketObjects) Write(ctx context.Context, bucket, name string, data []byte, generation int64) error {
	cond := storage.Conditions{DoesNotExist: true}
	if generation != 0 {
		cond = storage.Conditions{GenerationMatch: generation}
	}

	wc := b.client.Bucket(bucket).Object(name).If(cond).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return err
	}
	// Close performs the upload.
	return wc.Close()
}
