package siphonhttp

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/siphondl/siphon/internal/progress"
	"github.com/siphondl/siphon/internal/utils"
)

func TestPerformSimpleDownload(t *testing.T) {
	data := testData(30000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}))
	defer server.Close()

	dir := t.TempDir()
	config := utils.DownloadConfig{
		URL:        server.URL,
		OutputPath: filepath.Join(dir, "out.bin"),
		Resume:     true,
	}
	tracker := progress.NewTracker()

	if err := PerformSimpleDownload(config, utils.NewClient(utils.HTTPClientConfig{}), tracker); err != nil {
		t.Fatalf("PerformSimpleDownload: %v", err)
	}

	got, err := os.ReadFile(config.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("output mismatch: got %d bytes, want %d", len(got), len(data))
	}
	if total := tracker.Total(); total != int64(len(data)) {
		t.Errorf("tracker total = %d, want %d", total, len(data))
	}
	// The in-flight temp file is renamed away
	if _, err := os.Stat(config.OutputPath + ".part"); !os.IsNotExist(err) {
		t.Error("temp file still present after completion")
	}
}

func TestPerformSimpleDownloadResume(t *testing.T) {
	data := testData(30000)
	server := httptest.NewServer(serveRanges(data))
	defer server.Close()

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.bin")
	// First 3000 bytes already fetched by an interrupted run
	if err := os.WriteFile(outputPath+".part", data[:3000], 0644); err != nil {
		t.Fatal(err)
	}

	config := utils.DownloadConfig{
		URL:        server.URL,
		OutputPath: outputPath,
		Resume:     true,
	}
	tracker := progress.NewTracker()

	if err := PerformSimpleDownload(config, utils.NewClient(utils.HTTPClientConfig{}), tracker); err != nil {
		t.Fatalf("PerformSimpleDownload: %v", err)
	}

	got, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("output mismatch after resume")
	}
	if total := tracker.Total(); total != int64(len(data)) {
		t.Errorf("tracker total = %d, want %d", total, len(data))
	}
}

func TestPerformSimpleDownloadResumeUnsupported(t *testing.T) {
	data := testData(30000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Ignores the Range header, answers 200 with the whole file
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}))
	defer server.Close()

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(outputPath+".part", data[:3000], 0644); err != nil {
		t.Fatal(err)
	}

	config := utils.DownloadConfig{
		URL:        server.URL,
		OutputPath: outputPath,
		Resume:     true,
	}
	tracker := progress.NewTracker()

	if err := PerformSimpleDownload(config, utils.NewClient(utils.HTTPClientConfig{}), tracker); err != nil {
		t.Fatalf("PerformSimpleDownload: %v", err)
	}

	// Falls back to a full restart, the output must not be doubled up
	got, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("output mismatch after fallback: got %d bytes, want %d", len(got), len(data))
	}
}

func TestPerformSimpleDownloadNoResumeFlag(t *testing.T) {
	data := testData(10000)
	var gotRange string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
	}))
	defer server.Close()

	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(outputPath+".part", data[:3000], 0644); err != nil {
		t.Fatal(err)
	}

	config := utils.DownloadConfig{
		URL:        server.URL,
		OutputPath: outputPath,
		Resume:     false,
	}
	tracker := progress.NewTracker()

	if err := PerformSimpleDownload(config, utils.NewClient(utils.HTTPClientConfig{}), tracker); err != nil {
		t.Fatalf("PerformSimpleDownload: %v", err)
	}

	if gotRange != "" {
		t.Errorf("Range header = %q, want none with resume disabled", gotRange)
	}
	got, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("output mismatch")
	}
}
