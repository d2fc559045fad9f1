package siphonhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/siphondl/siphon/internal/progress"
	"github.com/siphondl/siphon/internal/utils"
)

// PerformSimpleDownload streams the whole file over one connection, used
// when range requests are unavailable or splitting is not worthwhile. It
// reports into the same tracker as the multi-part path.
func PerformSimpleDownload(config utils.DownloadConfig, client *utils.Client, tracker *progress.Tracker) error {
	log := utils.GetLogger("simple-download")
	outputDir := filepath.Dir(config.OutputPath)
	tempOutputPath := fmt.Sprintf("%s.part", config.OutputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %v", err)
	}

	var resumeOffset int64 = 0
	fileMode := os.O_CREATE | os.O_WRONLY
	if fileInfo, err := os.Stat(tempOutputPath); err == nil && config.Resume {
		resumeOffset = fileInfo.Size()
		fileMode |= os.O_APPEND
		log.Debug().Str("file", filepath.Base(tempOutputPath)).Int64("size", resumeOffset).Msg("Resuming incomplete download")
	} else {
		fileMode |= os.O_TRUNC
	}
	outFile, err := os.OpenFile(tempOutputPath, fileMode, 0644)
	if err != nil {
		return fmt.Errorf("error creating output file: %v", err)
	}
	defer outFile.Close()

	req, err := http.NewRequest("GET", config.URL, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request: %v", err)
	}
	if resumeOffset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeOffset))
		log.Debug().Int64("resumeOffset", resumeOffset).Msg("Setting Range header for resume")
	}
	req.Header.Set("Connection", "keep-alive")
	log.Debug().Str("url", config.URL).Msg("Starting simple download")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error executing GET request: %v", err)
	}
	defer resp.Body.Close()

	if resumeOffset > 0 {
		if resp.StatusCode != http.StatusPartialContent {
			log.Warn().Int("statusCode", resp.StatusCode).Msg("Server doesn't support resume, starting from beginning")
			outFile.Close()
			outFile, err = os.OpenFile(tempOutputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
			if err != nil {
				return fmt.Errorf("error creating output file: %v", err)
			}
			defer outFile.Close()
			resumeOffset = 0
		} else {
			tracker.Credit(resumeOffset)
		}
	} else if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var limiter *rate.Limiter
	bufferSize := utils.DefaultBufferSize
	if config.SpeedLimit > 0 {
		limiter = newSessionLimiter(config.SpeedLimit)
		if limiter.Burst() < bufferSize {
			bufferSize = limiter.Burst()
		}
	}
	buffer := make([]byte, bufferSize)
	var newBytes int64 = 0
	for {
		bytesRead, err := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if limiter != nil {
				_ = limiter.WaitN(context.Background(), bytesRead)
			}
			_, writeErr := outFile.Write(buffer[:bytesRead])
			if writeErr != nil {
				return fmt.Errorf("error writing to output file: %v", writeErr)
			}
			newBytes += int64(bytesRead)
			tracker.Add(int64(bytesRead))
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("error reading response body: %v", err)
		}
	}
	log.Debug().Int64("resumeOffset", resumeOffset).Int64("downloadedThisSession", newBytes).Msg("Simple download completed")
	if err := os.Rename(tempOutputPath, config.OutputPath); err != nil {
		return fmt.Errorf("error renaming (finalizing) output file: %v", err)
	}
	return nil
}
