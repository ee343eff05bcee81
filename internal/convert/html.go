package convert

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/net/html"
)

// htmlToText strips markup from an HTML document, keeping text content.
// script and style bodies are dropped entirely.
func htmlToText(data []byte) ([]byte, error) {
	tz := html.NewTokenizer(bytes.NewReader(data))
	var buf bytes.Buffer
	skipDepth := 0
	for {
		switch tz.Next() {
		case html.ErrorToken:
			if errors.Is(tz.Err(), io.EOF) {
				return buf.Bytes(), nil
			}
			return nil, tz.Err()
		case html.StartTagToken:
			name, _ := tz.TagName()
			if isNonContent(name) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tz.TagName()
			if isNonContent(name) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				buf.Write(tz.Text())
			}
		}
	}
}

func isNonContent(tag []byte) bool {
	return bytes.Equal(tag, []byte("script")) || bytes.Equal(tag, []byte("style"))
}
