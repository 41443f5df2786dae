package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/mermatic/mermatic/pkg/assets"
	"github.com/mermatic/mermatic/pkg/config"
)

// shellHTML is the fixed document loaded into the page: the rendering
// library, the diagram source verbatim inside the container element, the
// requested background and padding as page styling, and the initialize
// call with the layout sub-option defaults for flowchart, sequence, and
// gantt diagrams. parseError appends the error indicator element the wait
// step inspects to classify syntax errors.
const shellHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
* { margin: 0; padding: 0; }
body { background: {{.Background}}; padding: {{.Padding}}px; }
</style>
{{.ScriptTag}}
</head>
<body>
<div id="container" class="mermaid">{{.Diagram}}</div>
<script>
mermaid.parseError = function (err) {
  var el = document.createElement("div");
  el.id = "mermaid-error";
  el.textContent = String(err);
  document.body.appendChild(el);
};
mermaid.initialize({
  startOnLoad: true,
  theme: "{{.Theme}}",
  flowchart: { useMaxWidth: false, htmlLabels: true },
  sequence: { useMaxWidth: false },
  gantt: { useMaxWidth: false }
});
</script>
</body>
</html>
`

var shellTmpl = template.Must(template.New("shell").Parse(shellHTML))

type shellData struct {
	Diagram    string
	Theme      string
	Background string
	Padding    int
	ScriptTag  string
}

// Shell builds the self-contained document for one render. The diagram
// source is embedded verbatim. An empty script means the page references
// the pinned CDN location; otherwise the given library source is inlined
// so the render works offline.
func Shell(diagram string, opts config.Options, script string) string {
	tag := fmt.Sprintf("<script src=%q></script>", assets.ScriptURL)
	if script != "" {
		tag = "<script>" + script + "</script>"
	}

	var b strings.Builder
	_ = shellTmpl.Execute(&b, shellData{
		Diagram:    diagram,
		Theme:      opts.Theme,
		Background: opts.Background,
		Padding:    opts.Padding,
		ScriptTag:  tag,
	})
	return b.String()
}
