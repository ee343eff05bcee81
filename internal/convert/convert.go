// Package convert implements the conversion engine: given a stored
// representation (media type + bytes) and a requested target type, it
// validates reachability against the mimetype catalog and performs the
// transcoding.
//
// Dispatch is a closed mapping from (source, target) pairs to pure
// transform functions. Reachability is checked structurally before
// dispatch, so unsupported pairs never reach transformation code, and
// the two failure kinds stay distinct: an unreachable pair is a client
// error, a transform failure on a reachable pair is a server fault.
package convert

import (
	"fmt"
	"slices"

	"github.com/starford/fragments/internal/apperr"
	"github.com/starford/fragments/internal/mimetype"
)

type pair struct {
	source string
	target string
}

type transform func(data []byte) ([]byte, error)

// transforms holds every non-trivial conversion. Reachable pairs with no
// entry are pass-throughs (identity, CSV→text, YAML→text, raster
// identity).
var transforms = buildTransforms()

func buildTransforms() map[pair]transform {
	t := map[pair]transform{
		{mimetype.TextMarkdown, mimetype.TextHTML}:          markdownToHTML,
		{mimetype.TextMarkdown, mimetype.TextPlain}:         markdownToText,
		{mimetype.TextHTML, mimetype.TextPlain}:             htmlToText,
		{mimetype.ApplicationJSON, mimetype.TextPlain}:      prettyJSON,
		{mimetype.ApplicationJSON, mimetype.ApplicationJSON}: prettyJSON,
		{mimetype.ApplicationJSON, mimetype.ApplicationYAML}: jsonToYAML,
		{mimetype.ApplicationYAML, mimetype.ApplicationYAML}: reencodeYAML,
		{mimetype.TextCSV, mimetype.ApplicationJSON}:        csvToJSON,
	}
	rasterSources := []string{mimetype.ImagePNG, mimetype.ImageJPEG, mimetype.ImageGIF, mimetype.ImageWebP}
	for _, src := range rasterSources {
		for _, dst := range mimetype.Targets(src) {
			if src == dst {
				continue
			}
			t[pair{src, dst}] = reencodeImage(dst)
		}
	}
	return t
}

// Convert transcodes data from its stored media type to the target type
// and returns the result bytes together with the result type. The source
// type may carry parameters; the target must be a bare media type from
// the catalog.
//
// Fails with apperr.ErrUnsupportedConversion when the target is not
// reachable from the source, and with apperr.ErrConversionFailed when a
// reachable conversion cannot decode or transform the payload.
func Convert(sourceType string, data []byte, target string) ([]byte, string, error) {
	src := mimetype.Canonical(sourceType)
	reachable := mimetype.Targets(src)
	if !slices.Contains(reachable, target) {
		return nil, "", fmt.Errorf("%w: cannot convert %s to %s", apperr.ErrUnsupportedConversion, src, target)
	}
	fn, ok := transforms[pair{src, target}]
	if !ok {
		// Pass-through: identity, or a source that already is valid
		// content of the target type (e.g. CSV as plain text).
		return data, target, nil
	}
	out, err := fn(data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s to %s: %v", apperr.ErrConversionFailed, src, target, err)
	}
	return out, target, nil
}
