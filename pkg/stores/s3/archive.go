package s3

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/analogy/pkg/errors"
)

/*
Archive copies the feedback file to a bucket under a timestamped key. The
local file is left untouched and stays the source of truth.
*/
type Archive struct {
	conn   *Conn
	bucket string
	prefix string
	now    func() time.Time
}

func NewArchive(conn *Conn, cfg Config) *Archive {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "analogy"
	}

	return &Archive{
		conn:   conn,
		bucket: bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
	}
}

// Key returns the object key an upload started now would use.
func (archive *Archive) Key() string {
	name := "feedback-" + archive.now().UTC().Format("20060102T150405Z") + ".csv"
	return path.Join(archive.prefix, name)
}

/*
Upload stores the file at localPath and returns the key it was written to.
*/
func (archive *Archive) Upload(ctx context.Context, localPath string) (string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", errors.ErrPersistence.WithMessagef("nothing to archive at %s", localPath).Wrap(err)
	}

	if info.IsDir() {
		return "", errors.ErrPersistence.WithMessagef("%s is a directory", localPath)
	}

	if err := archive.conn.EnsureBucket(ctx, archive.bucket); err != nil {
		return "", errors.ErrPersistence.WithMessagef("bucket %s unavailable", archive.bucket).Wrap(err)
	}

	key := archive.Key()

	upload, err := archive.conn.PutFile(ctx, archive.bucket, key, localPath, "text/csv")
	if err != nil {
		return "", errors.ErrPersistence.WithMessagef("failed to upload %s", localPath).Wrap(err)
	}

	log.Info("feedback archived", "bucket", archive.bucket, "key", key, "size", upload.Size)
	return key, nil
}

// Archived lists the keys of earlier uploads.
func (archive *Archive) Archived(ctx context.Context) ([]string, error) {
	keys, err := archive.conn.List(ctx, archive.bucket, archive.prefix)
	if err != nil {
		return nil, errors.ErrPersistence.WithMessagef("failed to list %s", archive.bucket).Wrap(err)
	}

	return keys, nil
}
