package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/marmos91/fstore/internal/logger"
	"github.com/marmos91/fstore/pkg/fstoreerr"
	"github.com/marmos91/fstore/pkg/objectstore/fsys"
)

// hashMetadataKey is the S3 user-metadata key an object's SHA-256 hash is
// stored under, letting Copy skip re-uploading an object the bucket already
// holds unchanged (the S3 analogue of fsys.Filesystem.Copy's existing-hash
// check).
const hashMetadataKey = "fstore-sha256"

// S3Config carries the settings NewS3ClientFromConfig needs to build a
// client for an S3-compatible archive destination (AWS S3, MinIO, etc).
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	KeyPrefix       string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// S3Backend archives into an S3-compatible bucket, one object per key,
// keyed by object id. Grounded on the teacher's pkg/store/content/s3
// client-construction helper and path-based key convention, narrowed to
// fstore's whole-object (no multipart, no incremental write) archive copy.
type S3Backend struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// NewS3ClientFromConfig builds an S3 client from plain configuration
// values, following the teacher's NewS3ClientFromConfig helper.
func NewS3ClientFromConfig(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return client, nil
}

// NewS3Backend verifies bucket access and returns a Backend targeting it.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	client, err := NewS3ClientFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3Backend{client: client, bucket: cfg.Bucket, keyPrefix: cfg.KeyPrefix}, nil
}

func (b *S3Backend) key(objectID uuid.UUID) string {
	return b.keyPrefix + objectID.String()
}

// Copy uploads the object to S3, skipping the upload if the bucket already
// holds an object at this key tagged with expectedHash.
func (b *S3Backend) Copy(ctx context.Context, fs *fsys.Filesystem, objectID uuid.UUID, expectedHash string) error {
	key := b.key(objectID)

	head, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err == nil && head.Metadata[hashMetadataKey] == expectedHash {
		return nil
	}

	f, err := fs.Object(objectID)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(b.bucket),
		Key:      aws.String(key),
		Body:     f,
		Metadata: map[string]string{hashMetadataKey: expectedHash},
	})
	if err != nil {
		return fstoreerr.Internal("failed to upload object to archive bucket", err)
	}
	return nil
}

// RemoveExtraneous lists every key under the archive prefix and deletes any
// whose id no longer names a current object.
func (b *S3Backend) RemoveExtraneous(ctx context.Context, fs *fsys.Filesystem) error {
	var toDelete []types.ObjectIdentifier

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fstoreerr.Internal("failed to list archive bucket", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := (*obj.Key)[len(b.keyPrefix):]
			id, err := uuid.Parse(name)
			if err != nil {
				toDelete = append(toDelete, types.ObjectIdentifier{Key: obj.Key})
				continue
			}
			if _, statErr := os.Stat(fs.ObjectPath(id)); os.IsNotExist(statErr) {
				toDelete = append(toDelete, types.ObjectIdentifier{Key: obj.Key})
			}
		}
	}

	for i := 0; i < len(toDelete); i += 1000 {
		end := min(i+1000, len(toDelete))
		if _, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(b.bucket),
			Delete: &types.Delete{Objects: toDelete[i:end]},
		}); err != nil {
			logger.Warn("failed to batch-delete extraneous archive objects", "error", err)
		}
	}

	return nil
}
