package s3

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the connection settings of an S3 compatible endpoint.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Secure    bool   `mapstructure:"secure"`
}

/*
Conn is a thin wrapper around a minio client, which speaks to AWS S3 as well
as to any S3 compatible server.
*/
type Conn struct {
	client *minio.Client
}

func NewConn(cfg Config) (*Conn, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint is not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return &Conn{client: client}, nil
}

/*
EnsureBucket creates the bucket when it does not exist yet.
*/
func (conn *Conn) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := conn.client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	log.Info("creating bucket", "bucket", bucketName)
	return conn.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
}

func (conn *Conn) PutFile(
	ctx context.Context,
	bucketName string,
	objectKey string,
	path string,
	contentType string,
) (minio.UploadInfo, error) {
	return conn.client.FPutObject(ctx, bucketName, objectKey, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
}

// List returns the keys under prefix.
func (conn *Conn) List(ctx context.Context, bucketName, prefix string) ([]string, error) {
	var keys []string

	for object := range conn.client.ListObjects(ctx, bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}

		keys = append(keys, object.Key)
	}

	return keys, nil
}
