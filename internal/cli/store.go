package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/simring/blobstore"
	minioblob "github.com/hupe1980/simring/blobstore/minio"
	s3store "github.com/hupe1980/simring/blobstore/s3"
	"github.com/hupe1980/simring/internal/cache"
)

// splitStoreURL returns scheme, bucket and prefix. Plain paths have an
// empty scheme.
func splitStoreURL(raw string) (scheme, bucket, prefix string, err error) {
	if !strings.Contains(raw, "://") {
		return "", "", raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid store URL %q: %w", raw, err)
	}

	if u.Host == "" {
		return "", "", "", fmt.Errorf("invalid store URL %q: missing bucket", raw)
	}

	prefix = strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return u.Scheme, u.Host, prefix, nil
}

// OpenStore opens the store named by cfg.Store.
func OpenStore(ctx context.Context, cfg *Config) (blobstore.Store, error) {
	scheme, bucket, prefix, err := splitStoreURL(cfg.Store)
	if err != nil {
		return nil, err
	}

	var store blobstore.Store

	switch scheme {
	case "":
		store = blobstore.NewLocalStore(prefix)

	case "s3":
		store, err = openS3(ctx, cfg, bucket, prefix)

	case "minio":
		store, err = openMinIO(cfg, bucket, prefix)

	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}

	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		store = blobstore.NewCachingStore(store, cache.NewLRUBlockCache(cfg.CacheSize, nil), 0)
	}

	return store, nil
}

func openS3(ctx context.Context, cfg *Config, bucket, prefix string) (blobstore.Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}

		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	store := s3store.NewStore(client, bucket, prefix)

	if cfg.S3.DDBTable == "" {
		return store, nil
	}

	ddb := dynamodb.NewFromConfig(awsCfg)

	return s3store.NewDDBCommitStore(store, ddb, cfg.S3.DDBTable, "s3://"+bucket+"/"+prefix), nil
}

func openMinIO(cfg *Config, bucket, prefix string) (blobstore.Store, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, fmt.Errorf("minio store needs minio.endpoint in the config")
	}

	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.Secure,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return minioblob.NewStore(client, bucket, prefix), nil
}
