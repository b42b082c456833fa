package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"fixture-builder/core/fixtures"
	"fixture-builder/core/storage"
	"fixture-builder/feature/builder"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ContentType is the content type fixture objects are uploaded with.
const ContentType = "application/yaml"

// Report lists what a publish changed in the bucket.
type Report struct {
	Uploaded []string `json:"uploaded"`
	Removed  []string `json:"removed"`
}

// Publisher mirrors fixture files to a bucket under a key prefix.
type Publisher struct {
	client storage.Client
	bucket string
	prefix string
	region string
	logger *zap.Logger
}

// NewPublisher creates a Publisher for the bucket and prefix of cfg.
func NewPublisher(client storage.Client, cfg storage.Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		region: cfg.Region,
		logger: logger,
	}
}

// Key returns the object key of a fixture file.
func (p *Publisher) Key(file string) string {
	if p.prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(p.prefix, filepath.Base(file))
}

// Publish uploads files and removes fixture objects under the prefix that
// have no local file anymore. The bucket is created when missing.
func (p *Publisher) Publish(ctx context.Context, files []string) (*Report, error) {
	if err := p.ensureBucket(ctx); err != nil {
		return nil, err
	}

	report := &Report{}
	keep := make(map[string]struct{}, len(files))
	for _, file := range files {
		key := p.Key(file)
		if err := p.upload(ctx, file, key); err != nil {
			return report, err
		}
		keep[key] = struct{}{}
		report.Uploaded = append(report.Uploaded, key)
	}

	listPrefix := ""
	if p.prefix != "" {
		listPrefix = p.prefix + "/"
	}
	var stale []string
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{Prefix: listPrefix, Recursive: true}) {
		if obj.Err != nil {
			return report, fmt.Errorf("failed to list objects in %s: %w", p.bucket, obj.Err)
		}
		if _, ok := keep[obj.Key]; !ok && p.owns(obj.Key) {
			stale = append(stale, obj.Key)
		}
	}

	for _, key := range stale {
		if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return report, fmt.Errorf("failed to remove %s: %w", key, err)
		}
		report.Removed = append(report.Removed, key)
		p.logger.Debug("Removed stale fixture object", zap.String("key", key))
	}

	p.logger.Info("Fixtures published",
		zap.String("bucket", p.bucket),
		zap.Int("uploaded", len(report.Uploaded)),
		zap.Int("removed", len(report.Removed)))
	return report, nil
}

// owns reports whether key is a fixture object of the publisher: a fixture
// file directly under the prefix. Other objects of a shared bucket are
// never removed.
func (p *Publisher) owns(key string) bool {
	name := key
	if p.prefix != "" {
		rest, ok := strings.CutPrefix(key, p.prefix+"/")
		if !ok {
			return false
		}
		name = rest
	}
	return name != "" && !strings.Contains(name, "/") && path.Ext(name) == fixtures.Extension
}

// AfterBuild publishes the files of a committed build.
func (p *Publisher) AfterBuild(ctx context.Context, result *builder.Result) error {
	_, err := p.Publish(ctx, result.Files)
	return err
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", p.bucket, err)
	}
	p.logger.Info("Created bucket", zap.String("bucket", p.bucket))
	return nil
}

func (p *Publisher) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}

	_, err = p.client.PutObject(ctx, p.bucket, key, f, info.Size(), minio.PutObjectOptions{ContentType: ContentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	p.logger.Debug("Uploaded fixture", zap.String("key", key), zap.Int64("size", info.Size()))
	return nil
}
