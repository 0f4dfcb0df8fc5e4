package tasks

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"path/filepath"
)

var artworkExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// storeArtwork writes an embedded cover under the artwork directory and returns its
// absolute path. Files are named by content hash so albums share one image. An empty
// string means no artwork was stored.
func (e *LibraryEngine) storeArtwork(tags FileTags) string {
	if e.artworkDir == "" || len(tags.Artwork) == 0 {
		return ""
	}

	dir, err := filepath.Abs(e.artworkDir)
	if err != nil {
		e.logger.Warn("invalid artwork directory", "dir", e.artworkDir, "error", err)
		return ""
	}

	sum := sha256.Sum256(tags.Artwork)
	path := filepath.Join(dir, hex.EncodeToString(sum[:16])+artworkExt(tags))
	if _, err := os.Stat(path); err == nil {
		return path
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.logger.Warn("failed to create artwork directory", "dir", dir, "error", err)
		return ""
	}
	if err := os.WriteFile(path, tags.Artwork, 0o644); err != nil {
		e.logger.Warn("failed to write artwork", "path", path, "error", err)
		return ""
	}
	return path
}

func artworkExt(tags FileTags) string {
	mime := tags.ArtworkMIME
	if mime == "" {
		mime = http.DetectContentType(tags.Artwork)
	}
	if ext, ok := artworkExts[mime]; ok {
		return ext
	}
	return ".img"
}
