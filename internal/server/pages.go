package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

//go:embed pages/*.html
var pageFiles embed.FS

// dashboardPage is the data behind pages/dashboard.html.
type dashboardPage struct {
	Version      string
	Report       *models.Report
	Watchlist    []models.WatchItem
	HideExcluded bool
	ChartQuery   string
}

type pageRenderer struct {
	templates *template.Template
}

func newPageRenderer() *pageRenderer {
	funcs := template.FuncMap{
		"money":  common.FormatMoney,
		"vmoney": common.FormatValueMoney,
		"num":    func(v float64) string { return common.FormatNumber(v, 2) },
		"vnum":   common.FormatValue,
		"pct":    common.FormatPct,
		"vpct":   common.FormatValuePct,
		"spct":   common.FormatSignedPct,
		"vspct": func(v models.Value) string {
			f, ok := v.Get()
			if !ok {
				return common.NotAvailable
			}
			return common.FormatSignedPct(f)
		},
		"rate": func(v float64) string { return common.FormatNumber(v, 4) },
		// tone picks the css class for a signed figure
		"tone": func(v float64) string {
			switch {
			case v > 0:
				return "up"
			case v < 0:
				return "down"
			}
			return ""
		},
		"vtone": func(v models.Value) string {
			f, ok := v.Get()
			switch {
			case !ok:
				return "na"
			case f > 0:
				return "up"
			case f < 0:
				return "down"
			}
			return ""
		},
	}
	return &pageRenderer{
		templates: template.Must(template.New("pages").Funcs(funcs).ParseFS(pageFiles, "pages/*.html")),
	}
}

// render executes a page into a buffer first so template errors never
// leave a half-written response.
func (p *pageRenderer) render(w http.ResponseWriter, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
