// Package render drives a headless browser through the diagram rendering
// sequence and exports the result as SVG, PNG, or PDF bytes.
//
// # Overview
//
// All diagram parsing and layout is delegated to the mermaid library running
// inside the page; this package only constructs the page document, waits for
// the rendered SVG element, and captures it in the requested format:
//
//   - SVG: the element markup, finalized into a standalone XML document
//   - PNG: a screenshot scoped to the element's bounding box
//   - PDF: the whole page printed at exactly the requested pixel size
//
// # Environment Lifecycle
//
// Every render acquires a fresh, isolated browser environment and releases
// it before returning, on success and on every failure path. Environments
// are never pooled or reused across renders.
//
// # Failure Classification
//
// Failed renders carry one of the render classifications from pkg/errors:
// SYNTAX_ERROR when the library reported an in-page parse error, TIMEOUT
// when the SVG never appeared within the wait bound, UNSUPPORTED_FORMAT for
// an unknown export format, and RENDER_FAILED for everything else.
package render
