package zsdl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type (

	// Download streams one resource URL to a file on disk, optionally
	// continuing from the bytes already present.
	Download struct {

		// Client used for the transfer. Defaults to DefaultClient.
		Client *http.Client

		// URL of the resource.
		URL string

		// Dest is the file path written to.
		Dest string

		// BufferSize is the read chunk size in bytes.
		BufferSize int

		// Resume appends to an existing Dest instead of truncating it,
		// using a range request when bytes are already present.
		Resume bool

		// ProgressFunc receives transfer milestones, nil disables them.
		ProgressFunc

		ctx context.Context
	}

	// Result reports what the server said about a completed download.
	Result struct {

		// Size is offset plus the reported content length, -1 when the
		// server did not report one.
		Size int64

		// Modified is the server's last-modified time, zero when absent.
		Modified time.Time
	}
)

// DefaultBufferSize is the read chunk size used when none is set.
const DefaultBufferSize = 1024

// NewDownload returns a Download bound to ctx.
func NewDownload(ctx context.Context, URL, dest string) *Download {
	return &Download{ctx: ctx, URL: URL, Dest: dest}
}

// Start performs the transfer.
//
// When resuming past an already complete file the server answers 416, which
// is a success: Done is emitted with the on-disk size and Start returns with
// Result.Size set to it. Any other unexpected status is a StatusError.
func (d *Download) Start() (*Result, error) {

	client := d.Client

	if client == nil {
		client = DefaultClient
	}

	ctx := d.ctx

	if ctx == nil {
		ctx = context.Background()
	}

	bufferSize := d.BufferSize

	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	flags := os.O_CREATE | os.O_WRONLY

	if d.Resume {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	fp, err := os.OpenFile(d.Dest, flags, 0644)

	if err != nil {
		return nil, err
	}
	defer fp.Close()

	// Offset is fixed once here and never changes within this call.
	var offset int64

	if d.Resume {
		if offset, err = fp.Seek(0, io.SeekEnd); err != nil {
			return nil, err
		}
	}

	req, err := NewRequest(ctx, http.MethodGet, d.URL)

	if err != nil {
		return nil, err
	}

	expected := http.StatusOK
	continued := d.Resume && offset > 0

	if continued {
		expected = http.StatusPartialContent
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	start := time.Now()
	d.emit(Progress{Kind: ProgressStart, StartedAt: start, Now: start, Offset: offset, Current: offset, Total: -1})

	res, err := client.Do(req)

	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	// Range not satisfiable on a continued request: nothing left to fetch,
	// the file was already complete.
	if continued && res.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		d.emit(Progress{Kind: ProgressDone, StartedAt: start, Now: time.Now(), Offset: offset, Current: offset, Total: offset})
		return &Result{Size: offset}, nil
	}

	if res.StatusCode != expected {
		return nil, &StatusError{Code: res.StatusCode, Expected: expected}
	}

	total := int64(-1)

	if res.ContentLength >= 0 {
		total = offset + res.ContentLength
	}

	var modified time.Time

	if value := res.Header.Get("Last-Modified"); value != "" {
		if t, err := http.ParseTime(value); err == nil {
			modified = t
		}
	}

	size := offset
	buf := make([]byte, bufferSize)

	for {

		n, rerr := res.Body.Read(buf)

		if n > 0 {

			size += int64(n)
			now := time.Now()

			d.emit(Progress{Kind: ProgressRead, StartedAt: start, Now: now, Offset: offset, Delta: int64(n), Current: size, Total: total})

			if _, werr := fp.Write(buf[:n]); werr != nil {
				return nil, werr
			}

			d.emit(Progress{Kind: ProgressWrote, StartedAt: start, Now: time.Now(), Offset: offset, Delta: int64(n), Current: size, Total: total})
		}

		// A truncated body ends the stream here too, the shortfall is
		// caught by size verification instead of failing the transfer.
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}

		if rerr != nil {
			return nil, rerr
		}
	}

	d.emit(Progress{Kind: ProgressDone, StartedAt: start, Now: time.Now(), Offset: offset, Current: size, Total: total})

	return &Result{Size: total, Modified: modified}, nil
}

func (d *Download) emit(p Progress) {

	if d.ProgressFunc != nil {
		d.ProgressFunc(p)
	}
}
