package render

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Notice levels.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Notice is a one-time message shown above the rendered item, such as
// "Saved" after an editor round-trip.
type Notice struct {
	Level   string
	Message string
}

// Notices renders notices as a container of dismissible messages. No
// notices renders nothing.
func Notices(notices ...Notice) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(notices) == 0 {
			return nil
		}

		var sb strings.Builder
		sb.WriteString(`<div id="notices" class="notice-container">`)
		for _, n := range notices {
			sb.WriteString(`<div class="notice notice-`)
			sb.WriteString(html.EscapeString(n.Level))
			sb.WriteString(`" role="status">`)
			sb.WriteString(html.EscapeString(n.Message))
			sb.WriteString(`</div>`)
		}
		sb.WriteString(`</div>`)

		_, err := io.WriteString(w, sb.String())
		return err
	})
}
