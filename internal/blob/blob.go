// Package blob holds the opaque external-blob handle attached to payments
// and profiles. Content is write-once: a handle is built from raw bytes or a
// direct URL and never mutated afterwards.
package blob

import "fmt"

// progressChunk is the granularity at which upload progress is reported.
const progressChunk = 32 * 1024

// ProgressFunc receives upload progress as a percentage in [0,100].
type ProgressFunc func(percentage int)

type Blob struct {
	bytes      []byte
	url        string
	onProgress ProgressFunc
}

func FromBytes(data []byte) *Blob {
	return &Blob{bytes: data}
}

func FromURL(url string) *Blob {
	return &Blob{url: url}
}

// WithUploadProgress returns a derived handle that reports upload progress
// through fn. The original handle is left untouched.
func (b *Blob) WithUploadProgress(fn ProgressFunc) *Blob {
	derived := *b
	derived.onProgress = fn
	return &derived
}

// Bytes returns the raw content for upload, emitting progress callbacks in
// chunk-sized steps ending at 100. A URL-backed handle has no local bytes.
func (b *Blob) Bytes() ([]byte, error) {
	if b.bytes == nil {
		return nil, fmt.Errorf("blob has no local bytes (url: %s)", b.url)
	}
	if b.onProgress != nil {
		total := len(b.bytes)
		if total == 0 {
			b.onProgress(100)
		} else {
			for sent := progressChunk; sent < total; sent += progressChunk {
				b.onProgress(sent * 100 / total)
			}
			b.onProgress(100)
		}
	}
	return b.bytes, nil
}

// DirectURL returns the externally addressable location of the content, if
// the handle was built from one.
func (b *Blob) DirectURL() string {
	return b.url
}

func (b *Blob) Size() int {
	return len(b.bytes)
}
