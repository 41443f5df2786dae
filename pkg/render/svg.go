package render

import "strings"

const (
	xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

	svgNamespace   = `xmlns="http://www.w3.org/2000/svg"`
	xlinkNamespace = `xmlns:xlink="http://www.w3.org/1999/xlink"`
)

// FinalizeSVG turns the serialized in-page SVG element into a standalone,
// spec-valid vector document: the XML declaration is prefixed and the svg
// and xlink namespace declarations are injected into the opening tag when
// not already present.
func FinalizeSVG(markup string) []byte {
	markup = strings.TrimSpace(markup)

	if i := strings.Index(markup, "<svg"); i >= 0 {
		if end := strings.Index(markup[i:], ">"); end >= 0 {
			open := markup[i : i+end+1]
			var inject string
			if !strings.Contains(open, "xmlns=") {
				inject += " " + svgNamespace
			}
			if !strings.Contains(open, "xmlns:xlink=") {
				inject += " " + xlinkNamespace
			}
			if inject != "" {
				markup = markup[:i+4] + inject + markup[i+4:]
			}
		}
	}

	return []byte(xmlDeclaration + "\n" + markup + "\n")
}
