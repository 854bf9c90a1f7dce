// One-shot analysis of a recorded video file: runs the full detection and
// dwell pipeline over the file and prints the final statistics as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/yaJ17/FootTraffic-Analyzer/internal/config"
	"github.com/yaJ17/FootTraffic-Analyzer/internal/log"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/detect"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/engine"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/export"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/stream"
)

func main() {
	model := flag.String("model", config.ModelPath(), "path to the person detection ONNX model")
	location := flag.String("location", config.Location(), "location label for the statistics")
	out := flag.String("out", "", "optional JSON statistics file to append to")
	debug := flag.Bool("debug", false, "enable verbose debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <video-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	video := flag.Arg(0)

	level := "warn"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	cfg := detect.DefaultYOLOConfig()
	cfg.ModelPath = *model
	pipeline, err := detect.NewYOLOPipeline(cfg)
	if err != nil {
		log.Error("model load failed", "model", *model, "error", err)
		os.Exit(1)
	}

	var sinks []export.Sink
	if *out != "" {
		sinks = append(sinks, export.NewFileSink(*out))
	}

	// A file has a natural end: the first read failure past EOF should
	// finish the run instead of reconnecting.
	engCfg := engine.DefaultConfig()
	engCfg.MaxConsecutiveFailures = 0
	engCfg.MaxReconnectAttempts = 0
	engCfg.ReconnectDelay = 0

	eng := engine.New("offline", *location, stream.NewCaptureSource(video), pipeline, sinks, engCfg)

	err = eng.Run(context.Background())
	var exhausted *stream.ExhaustedError
	if err != nil && !errors.As(err, &exhausted) {
		log.Error("analysis failed", "video", video, "error", err)
		os.Exit(1)
	}

	final := eng.CurrentStats()
	final.Status = engine.StatusStopped
	final.Error = ""

	data, err := json.MarshalIndent(final, "", "    ")
	if err != nil {
		log.Error("encode statistics", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
