package views

import (
	"context"
	"io"

	"github.com/PabloPavan/data_explorer/internal/explorer"
	"github.com/PabloPavan/data_explorer/internal/i18n"
	"github.com/PabloPavan/data_explorer/internal/users"
	"github.com/a-h/templ"
)

const sortFormID = "sort-form"

var indicatorGlyph = map[explorer.Indicator]string{
	explorer.IndicatorNeutral: "↕",
	explorer.IndicatorAsc:     "↑",
	explorer.IndicatorDesc:    "↓",
}

// UsersPage renders the users browser: heading, filters and exactly one of
// spinner, error panel or table.
func UsersPage(p explorer.Presentation, loc i18n.Localizer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw("<section id=\"users\"")
		h.attr("data-status", string(p.Status))
		h.raw(">")

		h.raw("<header class=\"toolbar\" style=\"justify-content:space-between\"><h1>")
		h.text(i18n.T(loc, "users.title"))
		h.raw("</h1><p class=\"muted\" id=\"users-total\">")
		h.text(i18n.T(loc, "users.total_records", p.Total))
		h.raw("</p></header>")

		h.component(filters(p, loc))

		h.raw("<div class=\"card\" id=\"users-results\">")
		switch p.Status {
		case explorer.StatusLoading:
			h.raw("<div class=\"spinner\" role=\"status\"")
			h.attr("aria-label", i18n.T(loc, "users.loading"))
			h.raw("></div>")
		case explorer.StatusError:
			h.component(errorPanel(p.Error, loc))
		default:
			h.component(table(p, loc))
		}
		h.raw("</div>")

		if p.FooterVisible {
			h.component(footer(p, loc))
		}
		h.raw("</section>")
		return h.err
	})
}

func filters(p explorer.Presentation, loc i18n.Localizer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw("<div class=\"toolbar\">")

		// Each keystroke submits; there is no debounce.
		h.raw("<form method=\"post\" action=\"/users/search\" id=\"search-form\"><label>")
		h.raw("<span class=\"muted\">")
		h.text(i18n.T(loc, "users.search.label"))
		h.raw("</span> <input type=\"search\" name=\"search\" autocomplete=\"off\" autofocus")
		h.attr("value", p.View.Search)
		h.attr("placeholder", i18n.T(loc, "users.search.placeholder"))
		h.raw(" oninput=\"this.form.requestSubmit()\" onfocus=\"var v=this.value;this.value='';this.value=v\"></label></form>")

		h.raw("<form method=\"post\" action=\"/users/age\" id=\"age-form\"><select name=\"age\" onchange=\"this.form.requestSubmit()\"")
		h.attr("aria-label", i18n.T(loc, "users.age.label"))
		h.raw(">")
		for _, bucket := range users.AgeBuckets {
			h.raw("<option")
			h.attr("value", string(bucket))
			h.flag("selected", bucket == p.View.AgeFilter)
			h.raw(">")
			h.text(i18n.T(loc, "age."+string(bucket)))
			h.raw("</option>")
		}
		h.raw("</select><noscript><button type=\"submit\">OK</button></noscript></form>")

		if p.ClearVisible {
			h.raw("<form method=\"post\" action=\"/users/clear\" id=\"clear-form\"><button type=\"submit\">✕ ")
			h.text(i18n.T(loc, "users.clear"))
			h.raw("</button></form>")
		}

		h.raw("</div>")
		return h.err
	})
}

func errorPanel(message string, loc i18n.Localizer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw("<div class=\"error\" role=\"alert\"><p class=\"title\">")
		h.text(i18n.T(loc, "users.error.title"))
		h.raw("</p><p class=\"muted message\">")
		h.text(message)
		h.raw("</p><form method=\"post\" action=\"/users/reload\" id=\"retry-form\"><button type=\"submit\">")
		h.text(i18n.T(loc, "users.error.retry"))
		h.raw("</button></form></div>")
		return h.err
	})
}

func table(p explorer.Presentation, loc i18n.Localizer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw("<form method=\"post\" action=\"/users/sort\"")
		h.attr("id", sortFormID)
		h.raw("></form><table><thead><tr>")
		for _, col := range p.Columns {
			label := i18n.T(loc, "column."+string(col.Key))
			h.raw("<th")
			h.attr("data-key", string(col.Key))
			h.attr("data-indicator", string(col.Indicator))
			h.raw("><button type=\"submit\" name=\"key\"")
			h.attr("form", sortFormID)
			h.attr("value", string(col.Key))
			h.attr("title", i18n.T(loc, "users.sort_by", label))
			h.raw(">")
			h.text(label)
			h.raw(" <span class=\"indicator\" aria-hidden=\"true\">")
			h.text(indicatorGlyph[col.Indicator])
			h.raw("</span></button></th>")
		}
		h.raw("</tr></thead><tbody>")

		if p.Empty {
			h.raw("<tr class=\"empty\"><td colspan=\"5\" class=\"empty muted\">")
			h.text(i18n.T(loc, "users.empty"))
			h.raw("</td></tr>")
		}
		for _, u := range p.Rows {
			h.raw("<tr><td>")
			h.num(u.ID)
			h.raw("</td><td>")
			h.text(u.Username)
			h.raw("</td><td>")
			h.text(u.Name)
			h.raw("</td><td>")
			h.text(u.Email)
			h.raw("</td><td>")
			h.num(u.Age)
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")
		return h.err
	})
}

func footer(p explorer.Presentation, loc i18n.Localizer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw("<div class=\"footer\" id=\"users-footer\"><p class=\"muted range\">")
		h.text(i18n.T(loc, "users.footer.showing", p.RangeStart, p.RangeEnd, p.Total))
		h.raw("</p><form method=\"post\" action=\"/users/page\" class=\"toolbar\">")

		h.raw("<button type=\"submit\" name=\"direction\" value=\"prev\"")
		h.flag("disabled", p.PrevDisabled)
		h.raw(">")
		h.text(i18n.T(loc, "users.prev"))
		h.raw("</button><span class=\"page\">")
		h.text(i18n.T(loc, "users.footer.page", p.View.Page, p.TotalPages))
		h.raw("</span><button type=\"submit\" name=\"direction\" value=\"next\"")
		h.flag("disabled", p.NextDisabled)
		h.raw(">")
		h.text(i18n.T(loc, "users.next"))
		h.raw("</button></form></div>")
		return h.err
	})
}
