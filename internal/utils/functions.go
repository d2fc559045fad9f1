package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

// RenewOutputPath returns a non-colliding variant of outputPath by appending
// -(1), -(2), ... before the extension.
func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// DetectJobType infers the downloader for a bare URL argument.
func DetectJobType(arg string) string {
	if strings.HasPrefix(arg, "s3://") {
		return "s3"
	}
	return "http"
}

// EnsureExtension sniffs the magic bytes of a finished download whose name has
// no extension and renames it with the detected one. Unknown content is left
// untouched.
func EnsureExtension(outputPath string) (string, error) {
	if filepath.Ext(outputPath) != "" {
		return outputPath, nil
	}
	file, err := os.Open(outputPath)
	if err != nil {
		return outputPath, err
	}
	head := make([]byte, 261)
	n, err := file.Read(head)
	file.Close()
	if err != nil && err != io.EOF {
		return outputPath, err
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return outputPath, nil
	}
	renamed := outputPath + "." + kind.Extension
	if err := os.Rename(outputPath, renamed); err != nil {
		return outputPath, err
	}
	return renamed, nil
}

// Clean removes leftover part files for one output path, and the temp dir
// itself once it is empty.
func Clean(outputPath string) error {
	tempDir := filepath.Join(filepath.Dir(outputPath), TempDirName)
	files, err := os.ReadDir(tempDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	partPrefix := filepath.Base(outputPath) + ".part"
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if strings.HasPrefix(file.Name(), partPrefix) && PartFileRegex.MatchString(file.Name()) {
			if err := os.Remove(filepath.Join(tempDir, file.Name())); err != nil {
				return err
			}
		}
	}
	remainingFiles, err := os.ReadDir(tempDir)
	if err != nil {
		return err
	}
	if len(remainingFiles) == 0 {
		if err := os.Remove(tempDir); err != nil {
			return err
		}
	}
	return nil
}

// CleanLocal removes the whole temp dir under dir regardless of which outputs
// the parts belonged to.
func CleanLocal(dir string) error {
	tempDir := filepath.Join(dir, TempDirName)
	_, err := os.Stat(tempDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.RemoveAll(tempDir)
}
