// Foot traffic analyzer service: watches video streams, tracks how long
// people dwell in each counting region and serves live statistics over
// HTTP and websockets.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yaJ17/FootTraffic-Analyzer/internal/config"
	"github.com/yaJ17/FootTraffic-Analyzer/internal/log"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/detect"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/engine"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/export"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/stream"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/web"
)

func main() {
	port := flag.String("port", config.Port(), "HTTP listen port")
	video := flag.String("video", config.VideoSource(), "video source to start on boot (file, device index or ws:// URL)")
	location := flag.String("location", config.Location(), "location label for exported statistics")
	model := flag.String("model", config.ModelPath(), "path to the person detection ONNX model")
	statsFile := flag.String("stats-file", config.StatsFile(), "JSON statistics file")
	debug := flag.Bool("debug", false, "enable verbose debug logging")
	flag.Parse()

	level := config.LogLevel()
	if *debug {
		level = "debug"
	}
	log.Init(level)

	sinks := []export.Sink{export.NewFileSink(*statsFile)}

	var pg *export.PostgresSink
	if dbURL := config.DatabaseURL(); dbURL != "" {
		var err error
		pg, err = export.NewPostgresSink(dbURL)
		if err != nil {
			log.Error("postgres sink unavailable", "error", err)
			os.Exit(1)
		}
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Error("postgres schema setup failed", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, pg)
	}

	registry := engine.NewRegistry(newSource, newDetector(*model), sinks)

	srv := web.NewServer(*port, registry)
	srv.DefaultLocation = *location
	if pg != nil {
		srv.History = pg.Recent
	}
	registry.AddSink(srv)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv.StartAsync()

	if *video != "" {
		id, err := registry.Start("", *video, *location, engine.DefaultConfig())
		if err != nil {
			log.Error("boot stream failed", "source", *video, "error", err)
			os.Exit(1)
		}
		// Mirror the boot stream's frames to the dashboard feed.
		if eng, err := registry.Engine(id); err == nil {
			eng.SetOnFrame(func(f stream.Frame) { srv.SendCameraFrame(f.JPEG) })
		}
		log.Info("boot stream started", "id", id, "source", *video, "location", *location)
	}

	<-ctx.Done()
	log.Info("shutting down")

	registry.StopAll()
	srv.Shutdown()
	if pg != nil {
		pg.Close()
	}
}

// newSource picks the frame source by identifier scheme: websocket URLs
// dial a remote frame publisher, everything else goes through OpenCV.
func newSource(identifier string) stream.Source {
	if strings.HasPrefix(identifier, "ws://") || strings.HasPrefix(identifier, "wss://") {
		return stream.NewSocketSource(identifier)
	}
	return stream.NewCaptureSource(identifier)
}

// newDetector builds the per-stream detector factory. Each stream gets its
// own model instance and tracker.
func newDetector(modelPath string) engine.DetectorFactory {
	return func() (engine.DetectorTracker, error) {
		cfg := detect.DefaultYOLOConfig()
		cfg.ModelPath = modelPath
		return detect.NewYOLOPipeline(cfg)
	}
}
