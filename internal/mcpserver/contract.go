package mcpserver

// ConversionMatrix describes the supported fragment types and the
// representations reachable from each, for LLM consumers deciding what
// to store and how to read it back.
const ConversionMatrix = `# Fragment Conversion Matrix

Every fragment is stored under one of the supported media types below.
It can be read back unchanged, or converted to any representation listed
for its type.

| Source type      | Reachable representations                      |
|------------------|------------------------------------------------|
| text/plain       | text/plain                                     |
| text/markdown    | text/markdown, text/html, text/plain           |
| text/html        | text/html, text/plain                          |
| text/csv         | text/csv, text/plain, application/json         |
| application/json | application/json, application/yaml, text/plain |
| application/yaml | application/yaml, text/plain                   |
| image/png        | image/png, image/jpeg, image/gif               |
| image/jpeg       | image/png, image/jpeg, image/gif               |
| image/gif        | image/png, image/jpeg, image/gif               |
| image/webp       | image/webp, image/png, image/jpeg, image/gif   |

## Rules

1. A fragment's type is fixed at creation and can never change.
2. Conversion targets are requested by extension: txt, md, html, csv,
   json, yaml (or yml), png, jpg, gif, webp.
3. JSON read back as JSON is canonicalized (2-space pretty-print), not
   the raw stored bytes. YAML is re-emitted in block form.
4. WebP can be stored and converted *from*, and read back unchanged,
   but no other format can become webp.
5. Requesting a representation outside the table is rejected; it is not
   coerced.
`
