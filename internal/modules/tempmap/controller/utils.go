package controller

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"kyushu-tempmap/internal/modules/tempmap/transform"
	"kyushu-tempmap/internal/modules/tempmap/types"
)

// parseScaleQuery returns the requested scale, or the default plus a message
// for the page when the value is unusable.
func parseScaleQuery(r *http.Request) (scale int, problem string) {
	raw := r.URL.Query().Get("scale")
	scale, err := transform.ParseScale(raw)
	if err != nil {
		return scale, "invalid 'scale' " + strconv.Quote(raw) + ": " + err.Error()
	}
	return scale, ""
}

// loadErrorMessage is the inline text shown when nothing could be acquired.
func loadErrorMessage(err error) string {
	if errors.Is(err, types.ErrNoReadings) {
		return "Could not fetch any temperature readings: " + err.Error()
	}
	return "Could not load temperature readings: " + err.Error()
}

func dashboardURL(scale int) string {
	q := url.Values{}
	q.Set("scale", strconv.Itoa(scale))
	return "/?" + q.Encode()
}
