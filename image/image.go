// Package image describes loadable program images: ordered segments
// plus an entry address. The byte-level on-disk format of real images
// is out of scope; an image here is already parsed.
package image

import (
	"fmt"
)

// A Segment is one contiguous piece of a program image.
//
// Size is the full in-memory extent of the segment. DataSize is the
// number of initialized bytes at its start; the remainder is
// zero-filled storage (BSS).
type Segment struct {
	VA       uint64
	Size     uint64
	DataSize uint64
	Data     []byte
	Writable bool
}

// An Image is a named, loadable program.
type Image struct {
	Name     string
	Entry    uint64
	Segments []Segment
}

// Empty reports whether the image has no content to load.
func (i Image) Empty() bool {
	return len(i.Segments) == 0
}

// A Library resolves image names for the process loader.
type Library struct {
	images map[string]Image
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{images: make(map[string]Image)}
}

// Register adds an image to the library. Registering an image with
// inconsistent segments panics; the loader depends on DataSize never
// exceeding Size.
func (l *Library) Register(img Image) {
	for _, seg := range img.Segments {
		if seg.DataSize > seg.Size {
			panic(fmt.Sprintf(
				"image %s: segment at %#x has data size %d > size %d",
				img.Name, seg.VA, seg.DataSize, seg.Size))
		}

		if uint64(len(seg.Data)) != seg.DataSize {
			panic(fmt.Sprintf(
				"image %s: segment at %#x carries %d data bytes, declares %d",
				img.Name, seg.VA, len(seg.Data), seg.DataSize))
		}
	}

	l.images[img.Name] = img
}

// Lookup returns the image registered under name.
func (l *Library) Lookup(name string) (Image, bool) {
	img, ok := l.images[name]
	return img, ok
}

// Names returns the registered image names.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.images))
	for n := range l.images {
		names = append(names, n)
	}

	return names
}
