// Command surprise runs the Bayesian surprise pipeline over a frame source:
// feature extraction, per-pixel belief update, wow scoring, sqlite
// recording, and an HTTP API for inspection and runtime tuning.
package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kestrel-vision/surprise/internal/api"
	"github.com/kestrel-vision/surprise/internal/capture"
	"github.com/kestrel-vision/surprise/internal/config"
	"github.com/kestrel-vision/surprise/internal/features"
	"github.com/kestrel-vision/surprise/internal/monitoring"
	"github.com/kestrel-vision/surprise/internal/surprise"
	"github.com/kestrel-vision/surprise/internal/version"
	"github.com/kestrel-vision/surprise/internal/wowdb"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address for the HTTP API")
	dbFile     = flag.String("db", "surprise_data.db", "Path to the sqlite database")
	source     = flag.String("source", "", "Directory of frames to replay (png/jpeg)")
	devMode    = flag.Bool("dev", false, "Run in dev mode with a synthetic frame source")
	updateFac  = flag.Float64("updatefac", surprise.DefaultUpdateFactor, "Surprise update factor per frame, in (0.001, 0.999)")
	channels   = flag.String("channels", surprise.DefaultChannels, "Channels for surprise computation, any combination of SCIOFMG")
	interval   = flag.Duration("interval", 33*time.Millisecond, "Delay between frames")
	maxFrames  = flag.Int("max-frames", 0, "Stop after this many frames (0 = run until the source ends)")
	cellSize   = flag.Int("cell-size", features.DefaultCellSize, "Square pixel block pooled into one feature cell")
	configFile = flag.String("config", "", "Optional JSON tuning config; explicit flags take precedence")
)

// applyConfig overlays file-based tuning under any flags set explicitly on
// the command line.
func applyConfig(cfg *config.TuningConfig) {
	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if cfg.UpdateFactor != nil && !explicit["updatefac"] {
		*updateFac = *cfg.UpdateFactor
	}
	if cfg.Channels != nil && !explicit["channels"] {
		*channels = *cfg.Channels
	}
	if cfg.CellSize != nil && !explicit["cell-size"] {
		*cellSize = *cfg.CellSize
	}
	if d, ok := cfg.ParsedInterval(); ok && !explicit["interval"] {
		*interval = d
	}
	if cfg.MaxFrames != nil && !explicit["max-frames"] {
		*maxFrames = *cfg.MaxFrames
	}
}

func main() {
	flag.Parse()

	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		wowdb.RunMigrateCommand(args[1:], *dbFile)
		return
	}

	log.Printf("surprise %s", version.String())

	if *configFile != "" {
		cfg, err := config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		applyConfig(cfg)
	}

	var src capture.Source
	var sourceName string
	if *devMode || *source == "synthetic" {
		// Synthetic scene with a sustained brightness step partway in, so
		// the wow response is visible without camera hardware.
		src = capture.NewSyntheticSource(320, 240, 300)
		sourceName = "synthetic"
	} else {
		if *source == "" {
			log.Fatal("either -source or -dev is required")
		}
		dirSrc, err := capture.NewDirSource(*source)
		if err != nil {
			log.Fatalf("failed to open frame source: %v", err)
		}
		log.Printf("replaying %d frames from %s", dirSrc.Len(), *source)
		src = dirSrc
		sourceName = *source
	}

	engine, err := surprise.NewEngine(features.NewExtractor(*cellSize), surprise.Params{
		UpdateFactor: *updateFac,
		Channels:     *channels,
	})
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := wowdb.New(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	session := &wowdb.Session{
		Source:       sourceName,
		Channels:     *channels,
		UpdateFactor: *updateFac,
	}
	if err := db.CreateSession(session); err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	log.Printf("recording session %s", session.ID)

	srv := api.NewServer(db, engine, session.ID)
	go func() {
		log.Printf("HTTP API listening on %s", *listen)
		if err := http.ListenAndServe(*listen, api.LoggingMiddleware(srv.ServeMux())); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	runFrameLoop(src, engine, db, session.ID, sig)

	if stats, err := db.SessionStats(session.ID); err == nil {
		log.Printf("session %s: %d frames, mean %.4f wow, max %.4f wow",
			session.ID, stats.Count, stats.Mean, stats.Max)
	}
}

// runFrameLoop processes frames strictly sequentially until the source is
// exhausted, the frame limit is reached, or a shutdown signal arrives. A
// failed extraction skips the frame (belief state untouched) and the loop
// continues; frames are never processed concurrently.
func runFrameLoop(src capture.Source, engine *surprise.Engine, db *wowdb.DB, sessionID string, sig <-chan os.Signal) {
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	frameIndex := int64(0)
	for {
		select {
		case <-sig:
			log.Println("shutting down")
			return
		case <-ticker.C:
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			log.Println("frame source exhausted")
			return
		}
		if err != nil {
			log.Printf("failed to acquire frame %d: %v", frameIndex, err)
			return
		}

		wow, err := engine.Process(frame)
		if err != nil {
			var exErr *surprise.ExtractionError
			if errors.As(err, &exErr) {
				// Per-frame failure: report and move on, engine state is
				// still valid for the next frame.
				monitoring.Logf("frame %d skipped: %v", frameIndex, exErr)
				frameIndex++
				continue
			}
			log.Fatalf("frame %d: %v", frameIndex, err)
		}

		channelWows := make(map[string]float64)
		for ch, w := range engine.ChannelWows() {
			channelWows[ch.String()] = w
		}
		b := frame.Bounds()
		if err := db.RecordFrame(&wowdb.FrameRecord{
			SessionID:   sessionID,
			FrameIndex:  frameIndex,
			Wow:         wow,
			ChannelWows: channelWows,
			Width:       b.Dx(),
			Height:      b.Dy(),
		}); err != nil {
			log.Printf("failed to record frame %d: %v", frameIndex, err)
		}

		frameIndex++
		if *maxFrames > 0 && frameIndex >= int64(*maxFrames) {
			log.Printf("frame limit reached (%d)", *maxFrames)
			return
		}
	}
}
