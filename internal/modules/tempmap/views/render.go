package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"

	"kyushu-tempmap/internal/modules/tempmap/service"
	"kyushu-tempmap/internal/modules/tempmap/transform"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads the dashboard templates from fsys/dir.
// Tests use it to simulate a broken template set.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates parses the embedded templates. Call it once at startup and
// do not serve requests if it fails.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// ViewState is the initial deck.gl camera.
type ViewState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
	Bearing   float64 `json:"bearing"`
}

var InitialViewState = ViewState{Latitude: 32.7, Longitude: 131.0, Zoom: 6.2, Pitch: 45, Bearing: 0}

// PageData is the view model for the dashboard page and the map partial.
type PageData struct {
	service.Dashboard

	// ScaleError explains why the requested scale was replaced by the default.
	ScaleError string
	// LoadError is set when no snapshot could be produced at all.
	LoadError string

	MinScale     int
	MaxScale     int
	ScaleStep    int
	ColumnRadius int
	View         ViewState
}

// NewPageData fills the fixed map parameters around d.
func NewPageData(d service.Dashboard) *PageData {
	return &PageData{
		Dashboard:    d,
		MinScale:     transform.MinScale,
		MaxScale:     transform.MaxScale,
		ScaleStep:    100,
		ColumnRadius: transform.ColumnRadius,
		View:         InitialViewState,
	}
}

func RenderDashboard(w io.Writer, data *PageData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderMapPartial executes only the map data partial, for the htmx slider swap.
func RenderMapPartial(w io.Writer, data *PageData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/map.html", data)
}
