package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// renderWowChart renders the wow time series of a session as an HTML line
// chart using go-echarts. Debugging endpoint; the Svelte-free way to eyeball
// a run without pulling the data into a notebook.
// Query params:
//   - session (optional; defaults to the live session)
//   - max_points (optional; default 2000) to reduce payload size
func (s *Server) renderWowChart(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionParam(r)

	maxPoints := 2000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v >= 100 && v <= 50000 {
			maxPoints = v
		}
	}

	wows, err := s.db.SessionWows(sessionID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve wows: %v", err))
		return
	}
	if len(wows) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no frames recorded for session")
		return
	}

	// Downsample by stride to stay within maxPoints.
	stride := 1
	if len(wows) > maxPoints {
		stride = (len(wows) + maxPoints - 1) / maxPoints
	}

	xAxis := make([]string, 0, len(wows)/stride+1)
	data := make([]opts.LineData, 0, len(wows)/stride+1)
	for i := 0; i < len(wows); i += stride {
		xAxis = append(xAxis, strconv.Itoa(i))
		data = append(data, opts.LineData{Value: wows[i]})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Surprise Timeline", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Surprise (wows) per frame", Subtitle: fmt.Sprintf("session=%s frames=%d stride=%d", sessionID, len(wows), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "wow"}),
	)
	line.SetXAxis(xAxis).AddSeries("wow", data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
