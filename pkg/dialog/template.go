package dialog

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"
)

const maxTemplateOutput = 64 * 1024

// templateCache caches parsed templates to avoid re-parsing on every call.
var templateCache sync.Map

// Render evaluates a Go template string against data, typically a map of
// slot values. Plain strings without template markers pass through as-is.
func Render(tmplStr string, data any) (string, error) {
	if !strings.Contains(tmplStr, "{{") {
		return tmplStr, nil
	}
	return renderTemplate(tmplStr, data)
}

// limitWriter caps output from template.Execute.
type limitWriter struct {
	w       io.Writer
	n       int64
	written int64
}

func (lw *limitWriter) Write(p []byte) (int, error) {
	if lw.written+int64(len(p)) > lw.n {
		allowed := lw.n - lw.written
		if allowed > 0 {
			n, err := lw.w.Write(p[:allowed])
			lw.written += int64(n)
			if err != nil {
				return n, err
			}
		}
		return 0, fmt.Errorf("template output exceeds %d bytes", lw.n)
	}
	n, err := lw.w.Write(p)
	lw.written += int64(n)
	return n, err
}

func renderTemplate(tmplStr string, data any) (string, error) {
	var tmpl *template.Template
	if cached, ok := templateCache.Load(tmplStr); ok {
		tmpl = cached.(*template.Template)
	} else {
		var err error
		tmpl, err = template.New("").Parse(tmplStr)
		if err != nil {
			return "", err
		}
		templateCache.Store(tmplStr, tmpl)
	}

	var buf bytes.Buffer
	lw := &limitWriter{w: &buf, n: maxTemplateOutput}
	if err := tmpl.Execute(lw, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
