// Package objectstore mirrors exported files into an S3-compatible object
// store (MinIO in the stock deployment, via a custom endpoint with path-style
// addressing). A missing local file is logged and skipped rather than failing
// the run; the store itself being unreachable is an error.
package objectstore

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"golang.org/x/sync/errgroup"
)

// Config configures the object-store target.
type Config struct {
	// Endpoint overrides the S3 endpoint, e.g. "http://localhost:9000".
	Endpoint string
	// Region defaults to "us-east-1", which MinIO accepts.
	Region string
	// Bucket receiving the mirrored objects.
	Bucket string

	AccessKey string
	SecretKey string

	// ForcePathStyle must be true for MinIO-style endpoints.
	ForcePathStyle bool

	// Concurrency bounds parallel uploads in Mirror. Defaults to 4.
	Concurrency int
}

// Store wraps an S3 client bound to one bucket.
type Store struct {
	s3          *s3.S3
	bucket      string
	concurrency int
	log         *log.Logger
}

// New builds a Store from Config. The connection is lazy; failures surface on
// the first call.
func New(cfg Config, logger *log.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = log.Default()
	}

	awsCfg := aws.NewConfig().
		WithRegion(cfg.Region).
		WithS3ForcePathStyle(cfg.ForcePathStyle)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(
			credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("objectstore: session: %w", err)
	}
	return &Store{
		s3:          s3.New(sess),
		bucket:      cfg.Bucket,
		concurrency: cfg.Concurrency,
		log:         logger,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	_, err := s.s3.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}
	_, err = s.s3.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("objectstore: create bucket %s: %w", s.bucket, err)
	}
	s.log.Printf("job=mirror bucket=%s status=created", s.bucket)
	return nil
}

// Upload puts one local file under key. A missing local file is logged and
// skipped: uploaded=false with a nil error.
func (s *Store) Upload(ctx context.Context, key, localPath string) (bool, error) {
	f, err := os.Open(localPath)
	if os.IsNotExist(err) {
		s.log.Printf("job=mirror key=%s path=%s status=skipped_missing", key, localPath)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("objectstore: open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return false, fmt.Errorf("objectstore: put %s: %w", key, err)
	}
	return true, nil
}

// Outcome reports one mirrored object.
type Outcome struct {
	Key      string
	Path     string
	Uploaded bool
	Err      error
}

// Mirror uploads the key-to-path map with bounded parallelism and returns a
// per-object outcome list ordered by key. Individual failures are collected,
// not fatal; only context cancellation aborts the whole mirror.
func (s *Store) Mirror(ctx context.Context, objects map[string]string) ([]Outcome, error) {
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outcomes := make([]Outcome, len(keys))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			uploaded, err := s.Upload(ctx, key, objects[key])
			mu.Lock()
			outcomes[i] = Outcome{Key: key, Path: objects[key], Uploaded: uploaded, Err: err}
			mu.Unlock()
			if err != nil {
				s.log.Printf("job=mirror key=%s err=%v", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
