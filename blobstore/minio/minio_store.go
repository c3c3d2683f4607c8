// Package minio provides a blobstore backend for MinIO and other
// S3-compatible object storage, so containers can be queried card by card
// without downloading them whole.
package minio

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/stellarlib/opat/blobstore"
)

// Store implements blobstore.BlobStore over an S3-compatible bucket.
// The context given at construction scopes all reads through the store.
type Store struct {
	ctx    context.Context
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a Store for bucket. rootPrefix is prepended to all blob
// names (e.g. "opacity-tables/").
func NewStore(ctx context.Context, client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		ctx:    ctx,
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open stats the named object and returns a ranged-read handle over it.
func (s *Store) Open(name string) (blobstore.Blob, error) {
	key := s.key(name)

	info, err := s.client.StatObject(s.ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &objectBlob{
		ctx:    s.ctx,
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   info.Size,
	}, nil
}

// objectBlob reads byte ranges of one object via ranged GetObject requests.
type objectBlob struct {
	ctx    context.Context
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (b *objectBlob) Size() int64 { return b.size }

func (b *objectBlob) ReadAt(p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}
	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return 0, err
	}

	obj, err := b.client.GetObject(b.ctx, b.bucket, b.key, opts)
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:end-off+1])
	if err == nil && int64(n) < int64(len(p)) {
		err = io.EOF
	}
	return n, err
}

func (b *objectBlob) Close() error { return nil }
