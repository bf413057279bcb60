package server

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/pthm/hxpart"
	hxrender "github.com/pthm/hxpart/lib/render"
)

type page struct {
	Title   string
	Notices []hxrender.Notice
	Body    templ.Component
}

func (p page) component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`+
			html.EscapeString(p.Title)+`</title></head><body><main>`); err != nil {
			return err
		}
		if err := hxrender.Notices(p.Notices...).Render(ctx, w); err != nil {
			return err
		}
		if p.Body != nil {
			if err := p.Body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// editorForm wraps rendered editor shapes in a form posting to action.
func editorForm(action, token string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<form method="post" action="`+html.EscapeString(action)+`">`+
			`<input type="hidden" name="`+TokenField+`" value="`+html.EscapeString(token)+`">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<button type="submit">Save</button></form>`)
		return err
	})
}

// writePage renders p fully before writing, so a template error still
// produces a clean 500.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, p page) {
	var buf bytes.Buffer
	if err := p.component().Render(r.Context(), &buf); err != nil {
		s.OnError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) writeEditor(w http.ResponseWriter, r *http.Request, status int, action string, tok editToken, shapes []*hxpart.Shape, notices ...hxrender.Notice) {
	sealed, err := s.sealToken(tok)
	if err != nil {
		s.OnError(w, r, err)
		return
	}
	s.writePage(w, r, status, page{
		Title:   "Edit " + tok.ContentType,
		Notices: notices,
		Body:    editorForm(action, sealed, s.resolver.Component(tok.ContentType, shapes)),
	})
}
