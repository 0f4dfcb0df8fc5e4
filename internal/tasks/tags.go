package tasks

import (
	"fmt"
	"strings"

	"go.senan.xyz/taglib"
)

// FileTags is the metadata read from a local audio file.
type FileTags struct {
	Title       string
	Artist      string
	Album       string
	DurationMs  *int64
	Artwork     []byte // first embedded picture, if any
	ArtworkMIME string
}

// TagReader reads metadata from local audio files.
type TagReader interface {
	ReadTags(path string) (FileTags, error)
}

// TaglibReader reads tags, audio properties and the embedded cover with TagLib.
//
// Files TagLib cannot parse may come back with empty tags and no error; callers
// fall back to the file name for the title.
type TaglibReader struct{}

func (TaglibReader) ReadTags(path string) (FileTags, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return FileTags{}, fmt.Errorf("failed to read tags: %w", err)
	}

	out := FileTags{
		Title:  firstTag(tags, taglib.Title),
		Artist: firstTag(tags, taglib.Artist),
		Album:  firstTag(tags, taglib.Album),
	}

	props, err := taglib.ReadProperties(path)
	if err != nil {
		return out, nil
	}
	if props.Length > 0 {
		ms := props.Length.Milliseconds()
		out.DurationMs = &ms
	}
	if len(props.Images) > 0 {
		if img, err := taglib.ReadImage(path); err == nil && len(img) > 0 {
			out.Artwork = img
			out.ArtworkMIME = props.Images[0].MIMEType
		}
	}

	return out, nil
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}
