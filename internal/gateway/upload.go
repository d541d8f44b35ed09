package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ProgressFunc receives upload progress as an integer percentage in [0, 100].
type ProgressFunc func(percent int)

// FormFile is one file part of a multipart upload.
type FormFile struct {
	// Field is the form field name, e.g. "files".
	Field string
	// Name is the file name sent to the server.
	Name string
	// Content is read once while the body is assembled.
	Content io.Reader
}

// FileFromPath opens path as a FormFile. The caller must close the returned
// closer once the upload finished.
func FileFromPath(field, path string) (FormFile, io.Closer, error) {
	// #nosec G304 -- the path is chosen by the user on the command line
	f, err := os.Open(path)
	if err != nil {
		return FormFile{}, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return FormFile{Field: field, Name: filepath.Base(path), Content: f}, f, nil
}

// Upload sends fields and files as multipart/form-data with method POST and
// decodes the JSON response into out. progress, when non-nil, observes the
// bytes handed to the transport; its last call reports 100 once the server
// accepted the upload.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, files []FormFile, progress ProgressFunc, out any) error {
	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return &APIError{Kind: KindServer, Method: http.MethodPost, Path: path, Message: err.Error(), Err: err}
	}

	total := int64(body.Len())
	tracker := newProgressTracker(progress)
	reader := &progressReader{r: body, total: total, tracker: tracker}

	err = c.Do(ctx, http.MethodPost, path, &RequestOptions{
		RawBody:       reader,
		ContentType:   contentType,
		ContentLength: total,
	}, out)
	if err != nil {
		return err
	}
	tracker.Finish()
	return nil
}

func encodeMultipart(fields map[string]string, files []FormFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	// Deterministic field order keeps request bodies reproducible.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("failed to encode field %s: %w", k, err)
		}
	}

	for _, f := range files {
		if f.Content == nil {
			return nil, "", errors.New("upload file has no content")
		}
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode file %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("failed to read file %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// progressTracker turns (loaded, total) observations into percentages. It
// only reports values larger than the last one reported, so callers see a
// non-decreasing sequence without duplicates.
type progressTracker struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last int
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn, last: -1}
}

// Observe records that loaded of total bytes were sent.
func (p *progressTracker) Observe(loaded, total int64) {
	if p.fn == nil || total <= 0 {
		return
	}
	pct := int(loaded * 100 / total)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	p.report(pct)
}

// Finish reports 100 if it was not reported yet.
func (p *progressTracker) Finish() {
	if p.fn == nil {
		return
	}
	p.report(100)
}

func (p *progressTracker) report(pct int) {
	p.mu.Lock()
	if pct <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = pct
	p.mu.Unlock()
	p.fn(pct)
}

type progressReader struct {
	r       io.Reader
	total   int64
	loaded  int64
	tracker *progressTracker
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.r.Read(b)
	if n > 0 {
		r.loaded += int64(n)
		r.tracker.Observe(r.loaded, r.total)
	}
	return n, err
}
