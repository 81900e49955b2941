package controller

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"kyushu-tempmap/internal/modules/tempmap/service"
	"kyushu-tempmap/internal/modules/tempmap/transform"
	"kyushu-tempmap/internal/modules/tempmap/types"
	"kyushu-tempmap/internal/modules/tempmap/views"
	"kyushu-tempmap/internal/utils"
)

// pageData builds the view model for one render. Acquisition failures end up
// inline on the page; they never fail the request.
func pageData(snap types.Snapshot, hit bool, loadErr error, scale int, scaleProblem string) *views.PageData {
	if loadErr != nil {
		snap, hit = types.Snapshot{}, false
	}
	d, err := service.BuildDashboard(snap, scale, hit)
	if err != nil {
		slog.Error("build dashboard failed", "error", err)
		loadErr = err
		d, _ = service.BuildDashboard(types.Snapshot{}, scale, false)
	}

	data := views.NewPageData(d)
	data.ScaleError = scaleProblem
	if loadErr != nil {
		data.LoadError = loadErrorMessage(loadErr)
	}
	return data
}

func (c *tempMapControllerImpl) currentPage(ctx context.Context, scale int, scaleProblem string) *views.PageData {
	snap, hit, err := c.source.Get(ctx)
	if err != nil {
		slog.Error("load snapshot failed", "error", err)
	}
	return pageData(snap, hit, err, scale, scaleProblem)
}

func renderPage(w http.ResponseWriter, status int, render func(io.Writer, *views.PageData) error, data *views.PageData) {
	var buf bytes.Buffer
	if err := render(&buf, data); err != nil {
		slog.Error("template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, status, buf.Bytes())
}

func (c *tempMapControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	scale, problem := parseScaleQuery(r)
	if problem != "" {
		slog.Warn("dashboard: invalid scale", "scale", r.URL.Query().Get("scale"))
	}
	renderPage(w, http.StatusOK, views.RenderDashboard, c.currentPage(r.Context(), scale, problem))
}

// handleMapPartial serves the slider's htmx swap.
func (c *tempMapControllerImpl) handleMapPartial(w http.ResponseWriter, r *http.Request) {
	scale, problem := parseScaleQuery(r)
	renderPage(w, http.StatusOK, views.RenderMapPartial, c.currentPage(r.Context(), scale, problem))
}

// handleRefresh drops the cached snapshot, acquires a new one and redirects
// back to the dashboard. When nothing could be acquired the page is rendered
// directly so the error is shown without triggering a second acquisition.
func (c *tempMapControllerImpl) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	scale, err := transform.ParseScale(r.PostForm.Get("scale"))
	if err != nil {
		slog.Warn("refresh: invalid scale, using default", "scale", r.PostForm.Get("scale"), "error", err)
	}

	snap, err := c.source.Refresh(r.Context())
	if err != nil {
		slog.Error("refresh failed", "error", err)
		renderPage(w, http.StatusBadGateway, views.RenderDashboard, pageData(snap, false, err, scale, ""))
		return
	}

	slog.Info("snapshot refreshed", "readings", len(snap.Readings), "failures", len(snap.Failures))
	http.Redirect(w, r, dashboardURL(scale), http.StatusSeeOther)
}

func (c *tempMapControllerImpl) handleReadings(w http.ResponseWriter, r *http.Request) {
	scale, err := transform.ParseScale(r.URL.Query().Get("scale"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid 'scale': "+err.Error())
		return
	}

	snap, hit, err := c.source.Get(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	d, err := service.BuildDashboard(snap, scale, hit)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, d)
}
