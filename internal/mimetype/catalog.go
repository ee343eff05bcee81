// Package mimetype holds the static conversion catalog: which source media
// types the service accepts and which target representations each one can
// become. The catalog is consulted before any conversion is attempted, so
// unreachable pairs never reach transformation code.
package mimetype

import (
	"mime"
	"strings"
)

// Media types known to the catalog.
const (
	TextPlain       = "text/plain"
	TextMarkdown    = "text/markdown"
	TextHTML        = "text/html"
	TextCSV         = "text/csv"
	ApplicationJSON = "application/json"
	ApplicationYAML = "application/yaml"
	ImagePNG        = "image/png"
	ImageJPEG       = "image/jpeg"
	ImageGIF        = "image/gif"
	ImageWebP       = "image/webp"
)

// rasterTargets are the raster formats the service can encode. WebP is
// accepted as a source (decode only); no pure-Go encoder exists for it,
// so other formats cannot become webp. A webp fragment can still be
// requested as webp: identity returns the stored bytes without encoding.
var rasterTargets = []string{ImagePNG, ImageJPEG, ImageGIF}

// targets maps each supported source media type to the ordered list of
// representations reachable from it. Every list contains the source
// itself: identity is always reachable.
var targets = map[string][]string{
	TextPlain:       {TextPlain},
	TextMarkdown:    {TextMarkdown, TextHTML, TextPlain},
	TextHTML:        {TextHTML, TextPlain},
	TextCSV:         {TextCSV, TextPlain, ApplicationJSON},
	ApplicationJSON: {ApplicationJSON, ApplicationYAML, TextPlain},
	ApplicationYAML: {ApplicationYAML, TextPlain},
	ImagePNG:        rasterTargets,
	ImageJPEG:       rasterTargets,
	ImageGIF:        rasterTargets,
	ImageWebP:       {ImageWebP, ImagePNG, ImageJPEG, ImageGIF},
}

// extensions maps URL extensions (without the dot) to target media types.
var extensions = map[string]string{
	"txt":  TextPlain,
	"md":   TextMarkdown,
	"html": TextHTML,
	"csv":  TextCSV,
	"json": ApplicationJSON,
	"yaml": ApplicationYAML,
	"yml":  ApplicationYAML,
	"png":  ImagePNG,
	"jpg":  ImageJPEG,
	"jpeg": ImageJPEG,
	"gif":  ImageGIF,
	"webp": ImageWebP,
}

// Canonical parses a media type value (possibly carrying parameters such
// as "; charset=utf-8") and returns the bare type. An empty string means
// the value could not be parsed.
func Canonical(value string) string {
	mt, _, err := mime.ParseMediaType(value)
	if err != nil {
		return ""
	}
	return mt
}

// IsSupported reports whether value (with or without parameters) is a
// media type the service accepts as a fragment source.
func IsSupported(value string) bool {
	_, ok := targets[Canonical(value)]
	return ok
}

// Targets returns the ordered reachable target types for a source media
// type, or nil when the source is unsupported. The caller must not
// mutate the returned slice.
func Targets(value string) []string {
	return targets[Canonical(value)]
}

// IsText reports whether the media type carries textual content.
func IsText(value string) bool {
	mt := Canonical(value)
	return strings.HasPrefix(mt, "text/") || mt == ApplicationJSON || mt == ApplicationYAML
}

// ByExtension resolves a URL extension (with or without a leading dot)
// to the media type it requests. ok is false for unknown extensions.
func ByExtension(ext string) (string, bool) {
	mt, ok := extensions[strings.TrimPrefix(strings.ToLower(ext), ".")]
	return mt, ok
}
