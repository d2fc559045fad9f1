package siphonhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/siphondl/siphon/internal/progress"
	"github.com/siphondl/siphon/internal/utils"
)

// Errors surfaced by part workers. Range violations fail at construction;
// everything else lands once in the session tracker's error slot.
var (
	ErrInvalidRange = errors.New("download: start byte must be below end byte")
	ErrConnect      = errors.New("download: connection failed")
	ErrStream       = errors.New("download: stream interrupted")
	ErrPartFile     = errors.New("download: part file failure")
)

// readChunkSize is the fixed read granularity of a part worker.
const readChunkSize = 8 * 1024

// ByteRange is an inclusive byte span with HTTP Range header semantics.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Size() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// Part downloads one byte range of a file into its own part file. A Part is
// constructed once, runs a single pass and is discarded; a restart means a
// new Part over the same path.
type Part struct {
	url          string
	index        int
	span         ByteRange // remaining span, shifted forward when resuming
	partSize     int64     // size of the originally assigned span
	path         string
	resumed      bool
	resumeOffset int64
	downloaded   int64
	tracker      *progress.Tracker
	limiter      *rate.Limiter
}

// NewPart validates the range and, when resume is requested, probes the part
// file at path. A failed probe falls back to a fresh download; an oversized
// part file is removed and redownloaded.
func NewPart(url string, span ByteRange, index int, path string, tracker *progress.Tracker, resume bool) (*Part, error) {
	if span.Start >= span.End {
		return nil, fmt.Errorf("%w: bytes=%d-%d", ErrInvalidRange, span.Start, span.End)
	}
	p := &Part{
		url:      url,
		index:    index,
		span:     span,
		partSize: span.Size(),
		path:     path,
		tracker:  tracker,
	}
	if !resume {
		return p, nil
	}
	state := probePartFile(path)
	if !state.Resumed {
		return p, nil
	}
	if state.Offset > p.partSize {
		os.Remove(path)
		return p, nil
	}
	p.resumed = true
	p.resumeOffset = state.Offset
	p.downloaded = state.Offset
	p.span.Start += state.Offset
	return p, nil
}

// SetLimiter attaches a limiter shared across the session's parts.
func (p *Part) SetLimiter(l *rate.Limiter) {
	p.limiter = l
}

// Run performs the download pass and records any fault into the shared
// tracker. Sibling parts are not interrupted by a failure here.
func (p *Part) Run(client *utils.Client) {
	if err := p.run(client); err != nil {
		p.tracker.Fail(err)
	}
}

func (p *Part) run(client *utils.Client) error {
	log := utils.GetLogger("part").With().Int("part", p.index).Logger()
	if p.downloaded >= p.partSize {
		log.Debug().Str("file", filepath.Base(p.path)).Int64("size", p.downloaded).Msg("Part already downloaded, skipping")
		p.tracker.Credit(p.resumeOffset)
		return nil
	}

	req, err := http.NewRequest("GET", p.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	req.Header.Set("Range", p.span.Header())
	req.Header.Set("Connection", "keep-alive")
	log.Debug().Str("range", p.span.Header()).Msg("Sending range request")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("%w: unexpected status code %d", ErrConnect, resp.StatusCode)
	}

	flag := os.O_WRONLY | os.O_CREATE
	if p.resumed {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	file, err := os.OpenFile(p.path, flag, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPartFile, err)
	}
	defer file.Close()

	// The connection reports only the bytes it sends now; bytes already on
	// disk are added back to get this part's true target.
	expected := resp.ContentLength + p.resumeOffset
	p.tracker.Credit(p.resumeOffset)
	buffer := make([]byte, readChunkSize)
	for p.downloaded < expected {
		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			if p.limiter != nil {
				_ = p.limiter.WaitN(context.Background(), n)
			}
			if _, writeErr := file.Write(buffer[:n]); writeErr != nil {
				return fmt.Errorf("%w: %v", ErrPartFile, writeErr)
			}
			p.downloaded += int64(n)
			p.tracker.Add(int64(n))
		}
		if readErr != nil {
			if readErr == io.EOF {
				// A short stream is an early completion, not a fault; the
				// merge step verifies sizes.
				if p.downloaded < expected {
					log.Warn().Int64("downloaded", p.downloaded).Int64("expected", expected).Msg("Stream ended early")
				}
				break
			}
			return fmt.Errorf("%w: %v", ErrStream, readErr)
		}
	}
	log.Debug().Int64("resumeOffset", p.resumeOffset).Int64("totalDownloaded", p.downloaded).Msg("Part download completed")
	return nil
}

// Downloaded reports the bytes this part holds on disk, including resumed
// bytes. Plain field read, reliable once Run has returned.
func (p *Part) Downloaded() int64 {
	return p.downloaded
}

// Size reports the byte count of the originally assigned span.
func (p *Part) Size() int64 {
	return p.partSize
}
