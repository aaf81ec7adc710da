package utils

import (
	"os"
	"path/filepath"
	"testing"

	"facefortune/internal/types"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "JPEG magic", data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, want: true},
		{name: "PNG magic", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, want: true},
		{name: "Plain text", data: []byte("hello"), want: false},
		{name: "Empty", data: nil, want: false},
		{name: "Truncated JPEG magic", data: []byte{0xFF}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsImage(tt.data); got != tt.want {
				t.Errorf("IsImage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadPhoto(t *testing.T) {
	dir := t.TempDir()

	jpegPath := filepath.Join(dir, "face.jpg")
	if err := os.WriteFile(jpegPath, []byte{0xFF, 0xD8, 0x01, 0x02}, 0644); err != nil {
		t.Fatal(err)
	}
	textPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textPath, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("Valid JPEG", func(t *testing.T) {
		photo, err := LoadPhoto(jpegPath)
		if err != nil {
			t.Fatalf("LoadPhoto() error = %v", err)
		}
		if photo.Name != "face.jpg" {
			t.Errorf("expected basename, got %q", photo.Name)
		}
		if len(photo.Data) != 4 {
			t.Errorf("expected 4 bytes, got %d", len(photo.Data))
		}
	})

	t.Run("File does not exist", func(t *testing.T) {
		if _, err := LoadPhoto(filepath.Join(dir, "missing.jpg")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Path is a directory", func(t *testing.T) {
		if _, err := LoadPhoto(dir); err == nil {
			t.Error("expected error for directory path")
		}
	})

	t.Run("Not an image", func(t *testing.T) {
		if _, err := LoadPhoto(textPath); err == nil {
			t.Error("expected error for non-image file")
		}
	})
}

func TestFingerprint(t *testing.T) {
	a := types.Photo{Data: []byte{1, 2, 3}}
	b := types.Photo{Data: []byte{1, 2, 3}}
	c := types.Photo{Data: []byte{4, 5, 6}}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical photos must hash identically")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("different photos must hash differently")
	}
	if len(Fingerprint(a)) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(Fingerprint(a)))
	}
}
