package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sourcelens/semdiff/pkg/resultmodel"
)

const styleTagLen = 8 // len("</style>")

// defaultStylesheet is the external stylesheet filename fragment mode
// references by default; callers can override it per §6's "caller-
// configurable" stylesheet reference.
const defaultStylesheet = "roslyn-diff.css"

// HTMLOptions configures the HTML renderer.
type HTMLOptions struct {
	// Fragment selects embeddable-fragment mode. Fragment mode MUST NOT
	// emit a document preamble, head, or body element (§6).
	Fragment bool
	// Stylesheet is the external stylesheet filename fragment mode
	// references. Empty defaults to roslyn-diff.css.
	Stylesheet string
	// Title is used only in document mode.
	Title string
}

func (o HTMLOptions) stylesheet() string {
	if o.Stylesheet == "" {
		return defaultStylesheet
	}

	return o.Stylesheet
}

var htmlDocumentTpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="{{.Stylesheet}}">
    <script src="https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"></script>
</head>
<body>
{{.Fragment}}
</body>
</html>
`))

// HTML renders a MultiFileResult as either a standalone document or an
// embeddable fragment, per §6's two rendering modes.
func HTML(result *resultmodel.MultiFileResult, opts HTMLOptions) (string, error) {
	fragment := renderFragment(result, opts)

	if opts.Fragment {
		return fragment, nil
	}

	var buf bytes.Buffer

	title := opts.Title
	if title == "" {
		title = "Structural diff report"
	}

	err := htmlDocumentTpl.Execute(&buf, struct {
		Title      string
		Stylesheet string
		Fragment   template.HTML //nolint:gocritic // go-echarts/escaped sections trusted, see renderFragment
	}{Title: title, Stylesheet: opts.stylesheet(), Fragment: template.HTML(fragment)}) //nolint:gosec // fragment content is self-generated, not user input
	if err != nil {
		return "", fmt.Errorf("render: execute document template: %w", err)
	}

	return buf.String(), nil
}

// renderFragment builds the container element carrying machine-readable
// data attributes for change counts and impact breakdown (§6), the
// summary/impact chart, and the per-file change lists.
func renderFragment(result *resultmodel.MultiFileResult, opts HTMLOptions) string {
	var b strings.Builder

	counts := impactCounts(result.Summary.Stats)

	fmt.Fprintf(&b, `<div class="semdiff-report" data-stylesheet="%s" `+
		`data-total="%d" data-breaking-public="%d" data-breaking-internal="%d" `+
		`data-non-breaking="%d" data-formatting-only="%d">`+"\n",
		esc(opts.stylesheet()), result.Summary.Total, counts[0], counts[1], counts[2], counts[3])

	b.WriteString(`<div class="semdiff-chart">`)
	b.WriteString(renderChart(buildImpactChart(counts)))
	b.WriteString("</div>\n")

	for _, f := range result.Files {
		writeFileSection(&b, f)
	}

	b.WriteString("</div>\n")

	return b.String()
}

func writeFileSection(b *strings.Builder, f resultmodel.FileEntry) {
	label := changeFileLabel(f)

	fmt.Fprintf(b, `<div class="semdiff-file" data-status="%s">`+"\n", esc(f.Status.String()))
	fmt.Fprintf(b, "<h3>%s</h3>\n", esc(label))

	if f.Error != "" {
		fmt.Fprintf(b, `<p class="semdiff-error">%s</p>`+"\n", esc(f.Error))
	}

	if f.Result != nil {
		writeChangeList(b, f.Result.Changes)
	}

	b.WriteString("</div>\n")
}

func writeChangeList(b *strings.Builder, changes []*resultmodel.Change) {
	if len(changes) == 0 {
		return
	}

	b.WriteString("<ul>\n")

	for _, c := range changes {
		fmt.Fprintf(b, `<li data-impact="%s" data-type="%s"><span class="semdiff-kind">%s</span> `+
			`<span class="semdiff-name">%s</span> <span class="semdiff-impact">%s</span>`,
			esc(c.Impact.String()), esc(c.Type.String()), esc(c.Kind.String()), esc(c.Name), esc(c.Impact.String()))

		if len(c.Children) > 0 {
			writeChangeList(b, c.Children)
		}

		b.WriteString("</li>\n")
	}

	b.WriteString("</ul>\n")
}

// buildImpactChart renders the four impact-level counts as a bar chart,
// grounded on the teacher's BarBuilder fluent API.
func buildImpactChart(counts [4]int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: "300px"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Changes"}),
	)
	bar.SetXAxis(impactLabels[:])

	barData := make([]opts.BarData, len(counts))
	for i, v := range counts {
		barData[i] = opts.BarData{Value: v}
	}

	bar.AddSeries("Impact", barData)

	return bar
}

// renderChart renders a go-echarts component to embeddable HTML,
// stripping its own <div class="container"> wrapper and <style> tags so
// it composes cleanly inside the fragment container (teacher's
// plotpage.renderChart/extractChartContent pattern).
func renderChart(chart interface{ Render(w io.Writer) error }) string {
	var buf bytes.Buffer

	err := chart.Render(&buf)
	if err != nil {
		return ""
	}

	return extractChartContent(buf.String())
}

func extractChartContent(html string) string {
	start := strings.Index(html, `<div class="container">`)
	if start == -1 {
		return html
	}

	end := strings.Index(html, `</body>`)
	if end == -1 {
		return html
	}

	content := html[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)
	content = removeStyleTags(content)

	return content
}

func removeStyleTags(content string) string {
	for {
		i := strings.Index(content, `<style>`)
		if i == -1 {
			break
		}

		j := strings.Index(content[i:], `</style>`)
		if j == -1 {
			break
		}

		content = content[:i] + content[i+j+styleTagLen:]
	}

	return content
}

func esc(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")

	return s
}
