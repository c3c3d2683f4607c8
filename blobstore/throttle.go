package blobstore

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled wraps a BlobStore with a byte-per-second read budget shared by
// all blobs opened through it. Useful when lazy card reads against shared
// storage must not starve co-tenant workloads.
func Throttled(store BlobStore, bytesPerSec float64) BlobStore {
	// The burst must stay positive or the installment loop in ReadAt could
	// never claim a byte.
	burst := int(bytesPerSec)
	if burst < 1 {
		burst = 1
	}
	return &throttledStore{
		inner:   store,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

type throttledStore struct {
	inner   BlobStore
	limiter *rate.Limiter
}

func (s *throttledStore) Open(name string) (Blob, error) {
	b, err := s.inner.Open(name)
	if err != nil {
		return nil, err
	}
	return &throttledBlob{inner: b, limiter: s.limiter}, nil
}

type throttledBlob struct {
	inner   Blob
	limiter *rate.Limiter
}

func (b *throttledBlob) ReadAt(p []byte, off int64) (int, error) {
	// Large reads spend the budget in burst-sized installments.
	remaining := len(p)
	for remaining > 0 {
		n := remaining
		if burst := b.limiter.Burst(); n > burst {
			n = burst
		}
		if err := b.limiter.WaitN(context.Background(), n); err != nil {
			return len(p) - remaining, err
		}
		remaining -= n
	}
	return b.inner.ReadAt(p, off)
}

func (b *throttledBlob) Size() int64 { return b.inner.Size() }

func (b *throttledBlob) Close() error { return b.inner.Close() }
