// Package imgurl turns image paths stored on the blog server into URLs a
// browser can load.
//
// Paths that already point at a web resource are left alone, empty paths get a
// placeholder image, and anything else is treated as relative to the server.
package imgurl

import "strings"

// Placeholder is served when a record has no image at all.
const Placeholder = "http://dummyimage.com/400x400"

// Resolver resolves image paths against a server base URL.
type Resolver struct {
	Base        string // server base URL, e.g. "https://api.example.com"
	Placeholder string // defaults to Placeholder when empty
}

// New returns a Resolver for base using the default placeholder.
func New(base string) Resolver {
	return Resolver{Base: base}
}

// Convert returns the absolute URL for img.
func (r Resolver) Convert(img string) string {
	if img == "" {
		if r.Placeholder != "" {
			return r.Placeholder
		}
		return Placeholder
	}
	if strings.HasPrefix(img, "http") {
		return img
	}
	return r.Base + "/" + img
}

// Convert resolves img against base with the default placeholder.
func Convert(base, img string) string {
	return New(base).Convert(img)
}
