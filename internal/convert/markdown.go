package convert

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// The goldmark instance is initialized once and reused. Its configuration
// never changes and the parser/renderer are safe to share; per-call state
// lives in the reader and AST created for each conversion.
var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownInstance
}

// markdownToHTML renders Markdown to HTML.
func markdownToHTML(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown().Convert(data, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// markdownToText strips Markdown structure, keeping the readable text.
// Block boundaries become newlines so headings and paragraphs stay
// separated.
func markdownToText(data []byte) ([]byte, error) {
	reader := text.NewReader(data)
	doc := markdown().Parser().Parse(reader)

	var buf bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch node := n.(type) {
			case *ast.Text:
				buf.Write(node.Segment.Value(data))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(data))
				}
				return ast.WalkSkipChildren, nil
			case *ast.AutoLink:
				buf.Write(node.URL(data))
			}
			return ast.WalkContinue, nil
		}
		// Separate blocks with a newline on the way out.
		if _, isText := n.(*ast.Text); !isText && n.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
