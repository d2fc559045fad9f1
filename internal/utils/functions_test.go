package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenewOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	renewed := RenewOutputPath(path)
	if want := filepath.Join(dir, "file-(1).txt"); renewed != want {
		t.Errorf("RenewOutputPath = %q, want %q", renewed, want)
	}

	// The suffix counts up past existing renewals
	if err := os.WriteFile(renewed, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	renewed = RenewOutputPath(path)
	if want := filepath.Join(dir, "file-(2).txt"); renewed != want {
		t.Errorf("RenewOutputPath = %q, want %q", renewed, want)
	}
}

func TestParseHeaderArgs(t *testing.T) {
	headers := ParseHeaderArgs([]string{
		"Authorization: Bearer token123",
		"X-Window:   10:30  ",
		"malformed-no-colon",
	})

	if len(headers) != 2 {
		t.Fatalf("parsed %d headers, want 2", len(headers))
	}
	if got := headers["Authorization"]; got != "Bearer token123" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer token123")
	}
	// Only the first colon splits, the value keeps the rest
	if got := headers["X-Window"]; got != "10:30" {
		t.Errorf("X-Window = %q, want %q", got, "10:30")
	}
}

func TestDetectJobType(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"s3://bucket/key.zip", "s3"},
		{"https://example.com/file.zip", "http"},
		{"http://example.com/file.zip", "http"},
		{"example.com/file.zip", "http"},
	}

	for _, tt := range tests {
		if got := DetectJobType(tt.arg); got != tt.want {
			t.Errorf("DetectJobType(%q) = %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	tempDir := filepath.Join(dir, TempDirName)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"out.bin.part0", "out.bin.part12", "other.bin.part0", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := Clean(filepath.Join(dir, "out.bin")); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	// Only out.bin parts go, unrelated files stay
	for _, gone := range []string{"out.bin.part0", "out.bin.part12"} {
		if _, err := os.Stat(filepath.Join(tempDir, gone)); !os.IsNotExist(err) {
			t.Errorf("%s still present after Clean", gone)
		}
	}
	for _, kept := range []string{"other.bin.part0", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(tempDir, kept)); err != nil {
			t.Errorf("%s removed by Clean: %v", kept, err)
		}
	}

	// Once the last parts are gone the temp dir goes with them
	os.Remove(filepath.Join(tempDir, "notes.txt"))
	if err := Clean(filepath.Join(dir, "other.bin")); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Error("empty temp dir not removed")
	}
}

func TestCleanMissingTempDir(t *testing.T) {
	if err := Clean(filepath.Join(t.TempDir(), "out.bin")); err != nil {
		t.Fatalf("Clean on missing temp dir: %v", err)
	}
}

func TestCleanLocal(t *testing.T) {
	dir := t.TempDir()
	tempDir := filepath.Join(dir, TempDirName)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "a.bin.part0"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CleanLocal(dir); err != nil {
		t.Fatalf("CleanLocal: %v", err)
	}
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Error("temp dir still present after CleanLocal")
	}
}

func TestEnsureExtension(t *testing.T) {
	dir := t.TempDir()

	// PNG magic gets the matching extension
	pngPath := filepath.Join(dir, "image")
	pngHead := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
	if err := os.WriteFile(pngPath, pngHead, 0644); err != nil {
		t.Fatal(err)
	}
	renamed, err := EnsureExtension(pngPath)
	if err != nil {
		t.Fatalf("EnsureExtension: %v", err)
	}
	if want := pngPath + ".png"; renamed != want {
		t.Errorf("renamed = %q, want %q", renamed, want)
	}
	if _, err := os.Stat(renamed); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}

	// Unrecognized content stays as is
	textPath := filepath.Join(dir, "notes")
	if err := os.WriteFile(textPath, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	renamed, err = EnsureExtension(textPath)
	if err != nil {
		t.Fatalf("EnsureExtension: %v", err)
	}
	if renamed != textPath {
		t.Errorf("renamed = %q, want untouched %q", renamed, textPath)
	}

	// Files that already carry an extension are not sniffed
	binPath := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(binPath, pngHead, 0644); err != nil {
		t.Fatal(err)
	}
	renamed, err = EnsureExtension(binPath)
	if err != nil {
		t.Fatalf("EnsureExtension: %v", err)
	}
	if renamed != binPath {
		t.Errorf("renamed = %q, want untouched %q", renamed, binPath)
	}
}

func TestGetRandomUserAgent(t *testing.T) {
	if got := GetRandomUserAgent(); got == "" {
		t.Error("empty user agent")
	}
}
