package views

import (
	"context"
	"io"
	"strconv"

	"github.com/PabloPavan/data_explorer/internal/i18n"
	"github.com/a-h/templ"
)

const styles = `body{font-family:system-ui,sans-serif;margin:0;color:#0f172a;background:#f8fafc}
nav{display:flex;align-items:center;justify-content:space-between;padding:12px 24px;background:#fff;border-bottom:1px solid #e2e8f0}
nav a{color:inherit;text-decoration:none}.brand{font-weight:600}.langs a{margin-left:8px;font-size:.85rem}
main{padding:24px;max-width:1100px;margin:0 auto}
.toolbar{display:flex;gap:8px;align-items:center;margin:16px 0;flex-wrap:wrap}
.card{border:1px solid #e2e8f0;border-radius:8px;background:#fff}
table{width:100%;border-collapse:collapse}th,td{padding:8px 12px;text-align:left;border-bottom:1px solid #f1f5f9}
th button{background:none;border:0;font:inherit;cursor:pointer;padding:0}
.spinner{margin:48px auto;width:32px;height:32px;border-radius:50%;border-bottom:2px solid #0f172a;animation:spin 1s linear infinite}
@keyframes spin{to{transform:rotate(360deg)}}
.error{padding:48px 16px;text-align:center}.error .title{color:#dc2626;font-weight:600}
.footer{display:flex;justify-content:space-between;align-items:center;margin-top:16px;font-size:.9rem}
.muted{color:#64748b}.empty{text-align:center;padding:32px}`

// Page is the document shell: head, navigation bar and body. head components
// render inside <head>.
func Page(title, lang string, loc i18n.Localizer, body templ.Component, head ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw("<!DOCTYPE html><html")
		h.attr("lang", lang)
		h.raw("><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>")
		h.text(title)
		h.raw("</title><style>")
		h.raw(styles)
		h.raw("</style>")
		for _, c := range head {
			h.component(c)
		}
		h.raw("</head><body>")
		h.component(Navbar(loc))
		h.raw("<main>")
		h.component(body)
		h.raw("</main></body></html>")
		return h.err
	})
}

// Navbar renders the brand link and the language switch.
func Navbar(loc i18n.Localizer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw("<nav><a class=\"brand\" href=\"/\">")
		h.text(i18n.T(loc, "nav.brand"))
		h.raw("</a><span class=\"langs\">")
		h.raw("<a href=\"?lang=en-US\">")
		h.text(i18n.T(loc, "nav.lang_en"))
		h.raw("</a><a href=\"?lang=pt-BR\">")
		h.text(i18n.T(loc, "nav.lang_pt_br"))
		h.raw("</a></span></nav>")
		return h.err
	})
}

// AutoRefresh reloads the page after seconds. Used while a fetch is pending.
func AutoRefresh(seconds int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw("<meta http-equiv=\"refresh\"")
		h.attr("content", strconv.Itoa(max(seconds, 1)))
		h.raw(">")
		return h.err
	})
}
