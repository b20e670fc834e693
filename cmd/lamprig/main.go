// Command lamprig opens a window showing the articulated desk lamp with slider controls
// for its joints. Drag to orbit the camera and scroll to zoom.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/lamprig/asset"
	"github.com/plus3/lamprig/config"
	"github.com/plus3/lamprig/render"
	render_ebiten "github.com/plus3/lamprig/render/ebiten"
	"github.com/plus3/lamprig/rig"
	"github.com/plus3/lamprig/scene"
	"github.com/plus3/lamprig/ui"
	ui_ebiten "github.com/plus3/lamprig/ui/ebiten"
)

// Game implements ebiten.Game. Update runs one scheduler frame inside an ImGui frame;
// Draw renders the scene and overlays the panels.
type Game struct {
	scheduler    *scene.Scheduler
	imgui        *ui.ImguiSystem
	imguiBackend *ui_ebiten.ImguiBackend

	camera   *render.Camera
	orbit    *render.OrbitController
	pointer  render_ebiten.Pointer
	builder  *render.Builder
	renderer *render_ebiten.Renderer
	drawn    *render.DrawList
}

func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) && !g.imgui.Input().WantCaptureKeyboard {
		return ebiten.Termination
	}

	g.imguiBackend.BeginFrame()
	g.scheduler.Once(1.0 / float64(ebiten.TPS()))
	g.imguiBackend.EndFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawn = g.builder.Build(g.scheduler.Graph())
	g.renderer.Draw(screen, g.drawn)
	g.imguiBackend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.imguiBackend.Layout(outsideWidth, outsideHeight)
	g.builder.Width, g.builder.Height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// orbitSystem feeds mouse input to the orbit controller unless ImGui owns the mouse.
func (g *Game) orbitSystem(frame *scene.UpdateFrame) {
	in := g.pointer.Read(g.builder.Height, g.imgui.Input().WantCaptureMouse)
	g.orbit.Update(g.camera, in)
}

func (g *Game) drawStats() ui.DrawStats {
	if g.drawn == nil {
		return ui.DrawStats{}
	}
	return ui.DrawStats{
		Triangles: len(g.drawn.Triangles),
		Culled:    g.drawn.Culled,
		Meshes:    g.drawn.Meshes,
		Batches:   g.renderer.Batches(),
	}
}

func main() {
	cfg, err := config.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	slog.SetDefault(logger)

	manifest := rig.DefaultManifest()
	if cfg.Manifest != "" {
		if manifest, err = rig.LoadManifest(cfg.Manifest); err != nil {
			log.Fatalf("manifest: %v", err)
		}
	}

	log.Printf("Loading %q from %s...\n", manifest.Name, cfg.AssetDir)

	textures := asset.NewTextureCache(cfg.AssetDir)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	if err := textures.Warm(ctx, manifest.Textures()...); err != nil {
		logger.Warn("texture warm-up failed, textured parts use flat color", "error", err)
	}
	cancel()

	imguiBackend := ui_ebiten.NewImguiBackend("Desk Lamp", cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	graph := scene.NewGraph()
	scheduler := scene.NewScheduler(graph)
	loader := asset.NewLoader(&asset.GLTFSource{Dir: cfg.AssetDir}, asset.WithLogger(logger))
	assembler, err := rig.NewAssembler(graph, manifest, loader, rig.WithLogger(logger), rig.WithTextures(textures))
	if err != nil {
		log.Fatalf("assembler: %v", err)
	}

	camera := manifest.Camera.Camera()
	game := &Game{
		scheduler:    scheduler,
		imgui:        ui.NewImguiSystem(),
		imguiBackend: imguiBackend,
		camera:       camera,
		orbit:        render.NewOrbitController(camera),
		builder:      render.NewBuilder(camera, cfg.Width, cfg.Height),
		renderer:     render_ebiten.NewRenderer(),
	}
	ui.Install(game.imgui, scheduler, assembler, cfg.DebugUI, game.drawStats, logger)

	scheduler.Register(assembler)
	scheduler.RegisterNamed("OrbitSystem", scene.SystemFunc(game.orbitSystem))
	scheduler.Register(game.imgui)

	if err := assembler.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Fatalf("run: %v", err)
	}
	log.Println("Bye.")
}
