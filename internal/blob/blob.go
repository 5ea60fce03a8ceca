// Package blob uploads pending ExternalBlob bytes to object storage and resolves
// stored blobs back to bytes.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"pocketflix-portal/internal/domain"
)

// Store is an object store addressed by name.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, name string) error
}

// Uploader implements queries.BlobUploader on top of a Store. Uploaded objects are
// served under baseURL.
type Uploader struct {
	store   Store
	baseURL string
	newID   func() string
}

func NewUploader(store Store, baseURL string) *Uploader {
	return &Uploader{store: store, baseURL: strings.TrimRight(baseURL, "/"), newID: uuid.NewString}
}

// Upload stores the blob's pending bytes under name/<uuid> and returns a resolved blob.
// Progress is reported to the blob's callback as a percentage, ending at 100.
func (u *Uploader) Upload(ctx context.Context, b domain.ExternalBlob, name string) (domain.ExternalBlob, error) {
	if !b.Pending() {
		return b, nil
	}
	data, err := b.Bytes(ctx, nil)
	if err != nil {
		return b, err
	}
	object := path.Join(name, u.newID())
	r := &progressReader{r: bytes.NewReader(data), total: int64(len(data)), report: b.ReportProgress}
	b.ReportProgress(0)
	if err := u.store.Put(ctx, object, r, int64(len(data)), http.DetectContentType(data)); err != nil {
		return b, fmt.Errorf("put %s: %w", object, err)
	}
	r.finish()
	return domain.BlobFromURL(u.URL(object)), nil
}

// URL is the public address of an object.
func (u *Uploader) URL(object string) string {
	return u.baseURL + "/" + object
}

// Object returns the object name behind a URL issued by this uploader.
func (u *Uploader) Object(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, u.baseURL+"/")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Fetch implements domain.BlobFetcher for URLs issued by this uploader.
func (u *Uploader) Fetch(ctx context.Context, url string) ([]byte, error) {
	name, ok := u.Object(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, url)
	}
	return u.store.Get(ctx, name)
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		// 100 is only reported once the store accepted the object
		if pct >= 100 {
			pct = 99
		}
		if pct > p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}

func (p *progressReader) finish() {
	if p.last < 100 {
		p.last = 100
		p.report(100)
	}
}
