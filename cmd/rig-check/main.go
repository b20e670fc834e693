// Command rig-check assembles a rig without opening a window and prints a markdown
// report of the load chain, the resulting graph and a sweep of every control.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/plus3/lamprig/asset"
	"github.com/plus3/lamprig/config"
	"github.com/plus3/lamprig/render"
	"github.com/plus3/lamprig/rig"
	"github.com/plus3/lamprig/scene"
)

func main() {
	sweep := flag.Bool("sweep", true, "drive every control to its min and max after assembly")
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	manifest := rig.DefaultManifest()
	if cfg.Manifest != "" {
		if manifest, err = rig.LoadManifest(cfg.Manifest); err != nil {
			log.Fatalf("manifest: %v", err)
		}
	}

	log.Printf("Assembling %q from %s...\n", manifest.Name, cfg.AssetDir)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	textures := asset.NewTextureCache(cfg.AssetDir)
	if err := textures.Warm(ctx, manifest.Textures()...); err != nil {
		logger.Warn("texture warm-up failed", "error", err)
	}

	graph := scene.NewGraph()
	scheduler := scene.NewScheduler(graph)
	loader := asset.NewLoader(&asset.GLTFSource{Dir: cfg.AssetDir}, asset.WithLogger(logger))
	assembler, err := rig.NewAssembler(graph, manifest, loader, rig.WithLogger(logger), rig.WithTextures(textures))
	if err != nil {
		log.Fatalf("assembler: %v", err)
	}
	scheduler.Register(assembler)

	report := &Report{
		Manifest: manifest.Name,
		AssetDir: cfg.AssetDir,
		Timeout:  cfg.Timeout,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	var frame Stats
	scheduler.RegisterNamed("FrameTimer", scene.SystemFunc(func(f *scene.UpdateFrame) {
		frame.Samples = append(frame.Samples, time.Duration(f.DeltaTime*float64(time.Second)))
	}))

	start := time.Now()
	if err := assembler.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}
	err = scheduler.RunUntil(ctx, time.Second/60, assembler.Done)
	report.TotalTime = time.Since(start)
	if errors.Is(err, context.DeadlineExceeded) {
		report.TimedOut = true
		logger.Error("assembly did not settle", "timeout", cfg.Timeout)
	}

	frame.Finalize()
	report.FrameTime = frame
	report.Frames = scheduler.GetStats().Frames
	report.Parts = assembler.Status()
	report.Graph = graph.Stats()
	report.Tree = graph.Root().TreeString()

	cam := manifest.Camera.Camera()
	report.Draw = render.NewBuilder(cam, cfg.Width, cfg.Height).Build(graph)

	if *sweep {
		report.Sweep = Sweep(assembler.Controls(), assembler.Joints(), scheduler)
	}
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Assembly finished.")

	fmt.Println()
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	if !report.OK() {
		os.Exit(1)
	}
}
