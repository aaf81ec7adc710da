package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"facefortune/internal/types"
)

// --- 1. Operator-facing error reporting ---

// Die is the unified exit strategy for unrecoverable command failures.
// It prints a formatted error box and exits.
func Die(context string, err error) {
	ShowError(context, err)
	os.Exit(1)
}

// ShowError prints the error box without exiting, for RunE flows that want
// cobra to own the exit code.
func ShowError(context string, err error) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 FACE FORTUNE ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// --- 2. Photo handling ---

var (
	JpegSOI = []byte{0xFF, 0xD8} // Start of Image
	PngSig  = []byte{0x89, 0x50, 0x4E, 0x47}
)

// IsImage sniffs the leading bytes for the JPEG or PNG magic.
func IsImage(data []byte) bool {
	return bytes.HasPrefix(data, JpegSOI) || bytes.HasPrefix(data, PngSig)
}

// LoadPhoto reads a photo file and verifies it looks like a camera capture
// before it enters the pipeline.
func LoadPhoto(path string) (types.Photo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Photo{}, err
	}
	if info.IsDir() {
		return types.Photo{}, fmt.Errorf("%s is a directory, expected an image file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.Photo{}, err
	}
	if !IsImage(data) {
		return types.Photo{}, fmt.Errorf("%s does not look like a JPEG or PNG image", filepath.Base(path))
	}
	return types.Photo{Name: filepath.Base(path), Data: data}, nil
}

// Fingerprint returns a stable hash of the photo bytes. Used for debug
// logging only; the photo itself is never persisted.
func Fingerprint(p types.Photo) string {
	hash := sha256.Sum256(p.Data)
	return hex.EncodeToString(hash[:])
}
