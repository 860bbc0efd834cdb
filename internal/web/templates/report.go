// Package templates holds the HTML components rendered by the web server.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/ordersan/internal/core"
	"github.com/a-h/templ"
)

const pageStyle = `body{font-family:sans-serif;margin:2rem;color:#222}` +
	`table{border-collapse:collapse;margin-bottom:1.5rem}` +
	`th,td{border:1px solid #ccc;padding:.3rem .6rem;text-align:left}` +
	`td.n{text-align:right}.warning{background:#fff4d6}.fatal{background:#fde2e1}` +
	`.alert{border:1px solid #e0a0a0;background:#fde2e1;padding:.6rem}`

// ReportPage renders a full HTML page for rep.
func ReportPage(rep *core.Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>Validation run %s</title><style>%s</style></head><body>`,
			esc(rep.RunID.String()), pageStyle)
		p.printf(`<h1>Validation run %s</h1>`, esc(rep.RunID.String()))
		p.printf(`<p>Started %s, took %s.</p>`, esc(rep.StartedAt.Format("2006-01-02 15:04:05 MST")), esc(rep.Duration.String()))

		p.printf(`<h2>Checks</h2><table><tr><th>Check</th><th>Table</th><th>Severity</th><th>Count</th><th>Sample rows</th></tr>`)
		for _, c := range rep.Checks {
			class := ""
			if c.Count > 0 {
				class = string(c.Severity)
			}
			p.printf(`<tr class="%s"><td title="%s">%s</td><td>%s</td><td>%s</td><td class="n">%d</td><td>%s</td></tr>`,
				esc(class), esc(c.Description), esc(c.Name), esc(c.Table), esc(string(c.Severity)), c.Count, esc(joinInts(c.SampleRows)))
		}
		p.printf(`</table>`)

		for _, n := range rep.Nulls {
			p.printf(`<h2>Null values in %s</h2><p>%d rows</p><table><tr><th>Column</th><th>Nulls</th></tr>`, esc(n.Table), n.Rows)
			for _, c := range n.Columns {
				p.printf(`<tr><td>%s</td><td class="n">%d</td></tr>`, esc(c.Column), c.Count)
			}
			p.printf(`</table>`)
		}

		p.printf(`</body></html>`)
		return p.err
	})
}

// ErrorAlert renders an HTMX error fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<div class="alert" role="alert"><strong>%s</strong>`, esc(message))
		if action != "" {
			p.printf(`<p>%s</p>`, esc(action))
		}
		p.printf(`<small>Code: %s</small></div>`, esc(code))
		return p.err
	})
}

// printer keeps the first write error so components can write straight through.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func esc(s string) string { return templ.EscapeString(s) }

func joinInts(xs []int) string {
	var b []byte
	for i, x := range xs {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = strconv.AppendInt(b, int64(x), 10)
	}
	return string(b)
}
