// Package imageprep validates and shrinks local images before upload.
package imageprep

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disintegration/imaging"
)

const (
	// MaxUploadBytes is the hard cap on a single image file (10 MiB).
	MaxUploadBytes int64 = 10 << 20
	// MaxDimension is the longest edge after compression.
	MaxDimension = 1920
	// DefaultQuality is the JPEG re-encode quality on a 0..1 scale.
	DefaultQuality = 0.8
)

// ValidationError describes a file that must not be uploaded. It is always
// produced before any network activity.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid image %s: %s", e.Path, e.Reason)
}

// Validate checks file metadata only: the file must exist, be non-empty, and
// not exceed maxBytes (MaxUploadBytes when maxBytes <= 0). Content is not
// parsed here; a corrupt image surfaces later as a compression fallback.
func Validate(path string, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ValidationError{Path: path, Reason: "file does not exist"}
		}
		return &ValidationError{Path: path, Reason: fmt.Sprintf("cannot read file metadata: %v", err)}
	}
	if info.IsDir() {
		return &ValidationError{Path: path, Reason: "path is a directory"}
	}
	if info.Size() == 0 {
		return &ValidationError{Path: path, Reason: "file is empty"}
	}
	if info.Size() > maxBytes {
		return &ValidationError{
			Path:   path,
			Reason: fmt.Sprintf("file is %d bytes, maximum is %d", info.Size(), maxBytes),
		}
	}
	return nil
}

// Compress re-encodes the image at path as a JPEG no larger than
// maxDim x maxDim pixels, at the given quality (0..1; DefaultQuality when out
// of range). It returns the path of the compressed copy.
//
// Compression is an optimization, not a gate: on any failure (unreadable
// image, encode error, temp file trouble) the original path comes back
// unchanged and the upload proceeds with the bigger file.
func Compress(path string, maxDim int, quality float64) string {
	if maxDim <= 0 {
		maxDim = MaxDimension
	}
	if quality <= 0 || quality > 1 {
		quality = DefaultQuality
	}

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		slog.Debug("compress: falling back to original", "path", path, "error", err)
		return path
	}

	bounds := src.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		src = imaging.Fit(src, maxDim, maxDim, imaging.Lanczos)
	}

	out, err := os.CreateTemp("", "snapregister-*.jpg")
	if err != nil {
		slog.Debug("compress: falling back to original", "path", path, "error", err)
		return path
	}

	err = imaging.Encode(out, src, imaging.JPEG, imaging.JPEGQuality(int(quality*100)))
	closeErr := out.Close()
	if err != nil || closeErr != nil {
		os.Remove(out.Name())
		slog.Debug("compress: falling back to original", "path", path, "encode_error", err, "close_error", closeErr)
		return path
	}

	logReduction(path, out.Name())
	return out.Name()
}

// logReduction reports before/after sizes at debug level. Observability only.
func logReduction(originalPath, compressedPath string) {
	orig, err1 := os.Stat(originalPath)
	comp, err2 := os.Stat(compressedPath)
	if err1 != nil || err2 != nil {
		return
	}
	slog.Debug("image compressed",
		"path", originalPath,
		"original_bytes", orig.Size(),
		"compressed_bytes", comp.Size(),
	)
}
