package siphonhttp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/time/rate"

	"github.com/siphondl/siphon/internal/progress"
	"github.com/siphondl/siphon/internal/utils"
)

// PerformMultiDownload splits fileSize into one range per connection,
// downloads the ranges concurrently against a single shared tracker and
// merges the part files into config.OutputPath. The tracker holds the first
// fault; the merge runs only when no part failed.
func PerformMultiDownload(config utils.DownloadConfig, client *utils.Client, fileSize int64, tracker *progress.Tracker) error {
	log := utils.GetLogger("multi-download")
	tempDir := filepath.Join(filepath.Dir(config.OutputPath), utils.TempDirName)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("error creating temp directory: %v", err)
	}

	var limiter *rate.Limiter
	if config.SpeedLimit > 0 {
		limiter = newSessionLimiter(config.SpeedLimit)
	}
	ranges := splitRange(fileSize, config.Connections)
	parts := make([]*Part, 0, len(ranges))
	for i, span := range ranges {
		part, err := NewPart(config.URL, span, i, partFilePath(tempDir, config.OutputPath, i), tracker, config.Resume)
		if err != nil {
			return err
		}
		part.SetLimiter(limiter)
		parts = append(parts, part)
	}

	log.Debug().Int("parts", len(parts)).Int64("fileSize", fileSize).Msg("Starting multi-part download")
	var wg sync.WaitGroup
	for _, part := range parts {
		wg.Add(1)
		go func(p *Part) {
			defer wg.Done()
			p.Run(client)
		}(part)
	}
	wg.Wait()

	if err := tracker.Err(); err != nil {
		return err
	}
	if err := assembleParts(config.OutputPath, parts, fileSize); err != nil {
		return fmt.Errorf("error assembling file: %v", err)
	}
	return nil
}

// splitRange produces contiguous inclusive ranges covering [0, fileSize-1],
// one per connection, the last one absorbing the remainder. Files too small
// to split meaningfully collapse to a single range.
func splitRange(fileSize int64, connections int) []ByteRange {
	if connections < 1 {
		connections = 1
	}
	chunkSize := fileSize / int64(connections)
	if chunkSize < 2 {
		return []ByteRange{{Start: 0, End: fileSize - 1}}
	}
	var ranges []ByteRange
	var currentPosition int64 = 0
	for i := range connections {
		startByte := currentPosition
		endByte := startByte + chunkSize - 1
		if i == connections-1 {
			endByte = fileSize - 1
		}
		if endByte >= fileSize {
			endByte = fileSize - 1
		}
		if endByte > startByte {
			ranges = append(ranges, ByteRange{Start: startByte, End: endByte})
		}
		currentPosition = endByte + 1
	}
	return ranges
}

// partFilePath is the naming contract between workers, merge and clean:
// <temp dir>/<output base>.part<N>.
func partFilePath(tempDir, outputPath string, index int) string {
	return filepath.Join(tempDir, fmt.Sprintf("%s.part%d", filepath.Base(outputPath), index))
}

// newSessionLimiter builds the shared throttle. Burst covers at least one
// full read so WaitN never exceeds it.
func newSessionLimiter(bytesPerSec int64) *rate.Limiter {
	burst := int(bytesPerSec)
	if burst < readChunkSize {
		burst = readChunkSize
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// assembleParts concatenates the part files in index order into outputPath,
// verifies every part and the byte total, then removes the parts.
func assembleParts(outputPath string, parts []*Part, fileSize int64) error {
	destFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer destFile.Close()

	var totalWritten int64 = 0
	for _, part := range parts {
		partFile, err := os.Open(part.path)
		if err != nil {
			return fmt.Errorf("error opening part file %s: %v", part.path, err)
		}
		written, err := io.Copy(destFile, partFile)
		partFile.Close()
		if err != nil {
			return fmt.Errorf("error copying part data: %v", err)
		}
		if written != part.Size() {
			return fmt.Errorf("part %d holds %d bytes, expected %d", part.index, written, part.Size())
		}
		totalWritten += written
	}
	if totalWritten != fileSize {
		return fmt.Errorf("total written bytes (%d) doesn't match expected file size (%d)", totalWritten, fileSize)
	}

	for _, part := range parts {
		os.Remove(part.path)
	}
	return nil
}
