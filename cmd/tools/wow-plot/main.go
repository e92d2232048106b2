// Command wow-plot renders wow time series from a recorded session as PNG
// charts: one plot of the total wow per frame, and one overlaying the
// per-channel breakdown. Useful for eyeballing belief convergence and
// spike response after a run.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kestrel-vision/surprise/internal/wowdb"
)

var (
	dbFile    = flag.String("db", "surprise_data.db", "Path to the sqlite database")
	sessionID = flag.String("session", "", "Session to plot (default: most recent)")
	outputDir = flag.String("out", "plots", "Directory for rendered PNGs")
)

func main() {
	flag.Parse()

	db, err := wowdb.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	id := *sessionID
	if id == "" {
		sessions, err := db.Sessions()
		if err != nil {
			log.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) == 0 {
			log.Fatal("no sessions recorded")
		}
		id = sessions[0].ID
		log.Printf("plotting most recent session %s", id)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	wows, err := db.SessionWows(id)
	if err != nil {
		log.Fatalf("failed to load wows: %v", err)
	}
	if len(wows) == 0 {
		log.Fatalf("session %s has no frames", id)
	}

	totalFile := filepath.Join(*outputDir, fmt.Sprintf("%s_wow.png", id))
	if err := plotTotal(wows, id, totalFile); err != nil {
		log.Fatalf("failed to render wow plot: %v", err)
	}
	log.Printf("wrote %s", totalFile)

	frames, err := db.RecentFrames(id, len(wows))
	if err != nil {
		log.Fatalf("failed to load frames: %v", err)
	}
	channelFile := filepath.Join(*outputDir, fmt.Sprintf("%s_channels.png", id))
	n, err := plotChannels(frames, id, channelFile)
	if err != nil {
		log.Fatalf("failed to render channel plot: %v", err)
	}
	if n == 0 {
		log.Println("no per-channel data recorded, skipping channel plot")
		return
	}
	log.Printf("wrote %s (%d channels)", channelFile, n)
}

func plotTotal(wows []float64, sessionID, outFile string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s - Wow per Frame", sessionID)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Wow"

	pts := make(plotter.XYs, len(wows))
	for i, w := range wows {
		pts[i] = plotter.XY{X: float64(i), Y: w}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)

	return p.Save(14*vg.Inch, 6*vg.Inch, outFile)
}

// plotChannels overlays one line per channel. Frames arrive newest first
// from the database, so the series are built backwards.
func plotChannels(frames []wowdb.FrameRecord, sessionID, outFile string) (int, error) {
	series := make(map[string]plotter.XYs)
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		for name, w := range f.ChannelWows {
			series[name] = append(series[name], plotter.XY{X: float64(f.FrameIndex), Y: w})
		}
	}
	if len(series) == 0 {
		return 0, nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Session %s - Per-Channel Wow", sessionID)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Wow"

	var names []string
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	colors := channelColors(len(names))
	for i, name := range names {
		line, err := plotter.NewLine(series[name])
		if err != nil {
			return 0, err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, outFile); err != nil {
		return 0, err
	}
	return len(names), nil
}

// channelColors spreads n distinguishable hues around the color wheel.
func channelColors(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		h := float64(i) / float64(n)
		out[i] = hsvToRGB(h, 0.85, 0.85)
	}
	return out
}

func hsvToRGB(h, s, v float64) color.RGBA {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
