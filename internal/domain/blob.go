package domain

import (
	"context"
	"encoding/json"
	"errors"
)

// BlobFetcher resolves the bytes behind a blob URL.
type BlobFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ExternalBlob is an opaque reference to binary content stored outside the data model.
// A blob is either resolved (it has a direct URL) or pending (it carries raw bytes
// that still have to be uploaded).
type ExternalBlob struct {
	url        string
	data       []byte
	onProgress func(percentage int)
}

// BlobFromURL references content that is already stored.
func BlobFromURL(url string) ExternalBlob {
	return ExternalBlob{url: url}
}

// BlobFromBytes wraps raw bytes that still need to be uploaded.
func BlobFromBytes(data []byte) ExternalBlob {
	cp := make([]byte, len(data))
	copy(cp, data)
	return ExternalBlob{data: cp}
}

// WithUploadProgress returns a copy that reports upload progress to fn.
func (b ExternalBlob) WithUploadProgress(fn func(percentage int)) ExternalBlob {
	b.onProgress = fn
	return b
}

// DirectURL returns the URL the content can be fetched from, or "" for pending blobs.
func (b ExternalBlob) DirectURL() string {
	return b.url
}

// Pending reports whether the blob carries bytes that were not uploaded yet.
func (b ExternalBlob) Pending() bool {
	return b.url == "" && len(b.data) > 0
}

// IsZero reports whether the blob references nothing at all.
func (b ExternalBlob) IsZero() bool {
	return b.url == "" && len(b.data) == 0
}

// Size is the number of pending bytes.
func (b ExternalBlob) Size() int {
	return len(b.data)
}

// Bytes returns the blob content, fetching it through f when only a URL is known.
func (b ExternalBlob) Bytes(ctx context.Context, f BlobFetcher) ([]byte, error) {
	if len(b.data) > 0 {
		cp := make([]byte, len(b.data))
		copy(cp, b.data)
		return cp, nil
	}
	if b.url == "" {
		return nil, ErrNotFound
	}
	if f == nil {
		return nil, errors.New("no blob fetcher configured")
	}
	return f.Fetch(ctx, b.url)
}

// ReportProgress forwards an upload percentage to the registered callback, if any.
func (b ExternalBlob) ReportProgress(percentage int) {
	if b.onProgress != nil {
		b.onProgress(percentage)
	}
}

type blobJSON struct {
	URL  string `json:"url"`
	Data []byte `json:"data,omitempty"`
}

func (b ExternalBlob) MarshalJSON() ([]byte, error) {
	out := blobJSON{URL: b.url}
	if b.url == "" {
		out.Data = b.data
	}
	return json.Marshal(out)
}

func (b *ExternalBlob) UnmarshalJSON(data []byte) error {
	var in blobJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = ExternalBlob{url: in.URL}
	if in.URL == "" && len(in.Data) > 0 {
		b.data = in.Data
	}
	return nil
}
