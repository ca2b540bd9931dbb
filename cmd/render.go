package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/ajgappmark/RGK/asset/config"
	"github.com/ajgappmark/RGK/asset/texture"
	"github.com/ajgappmark/RGK/asset/wavefront"
	"github.com/ajgappmark/RGK/renderer"
	"github.com/ajgappmark/RGK/scene"
	"github.com/ajgappmark/RGK/tracer"
	"github.com/ajgappmark/RGK/types"
)

// Initial framebuffer stripe pattern, visible in previews wherever no
// tile has finished yet.
const stripeHeight = 15

// RenderScene renders the job described by a config file. With pixel
// coordinates as extra arguments it instead traces that single pixel
// verbosely and exits.
func RenderScene(ctx *cli.Context) error {
	setupLogging(ctx)

	args := ctx.Args()
	if len(args) < 1 {
		cli.ShowCommandHelp(ctx, "render")
		return nil
	}

	debugTrace := false
	var debugX, debugY int
	if len(args) >= 3 {
		var err error
		if debugX, err = strconv.Atoi(args[1]); err != nil {
			logger.Errorf("invalid debug pixel x: %v", err)
			os.Exit(1)
		}
		if debugY, err = strconv.Atoi(args[2]); err != nil {
			logger.Errorf("invalid debug pixel y: %v", err)
			os.Exit(1)
		}
		debugTrace = true
		logger.Noticef("debug mode enabled, will trace pixel %d %d", debugX, debugY)
	}

	configPath := args[0]
	cfg, err := config.Read(configPath)
	if err != nil {
		logger.Errorf("failed to load config file: %v", err)
		os.Exit(1)
	}
	configDir := filepath.Dir(configPath)

	s, err := wavefront.Load(
		filepath.Join(configDir, cfg.Scene.ModelFile),
		wavefront.Options{Brdf: cfg.Sampling.Brdf},
	)
	if err != nil {
		logger.Errorf("failed to load model: %v", err)
		os.Exit(1)
	}

	s.SkyColor = cfg.Scene.SkyColor.Vec()
	if cfg.Scene.SkyTexture != "" {
		s.SkyTexture, err = texture.Load(filepath.Join(configDir, cfg.Scene.SkyTexture))
		if err != nil {
			logger.Errorf("failed to load sky texture: %v", err)
			os.Exit(1)
		}
	}

	s.Lights = cfg.Lights()
	if cfg.Sampling.RecursionLevel == 0 {
		// Geometry-only renders ignore lights entirely.
		s.Lights = nil
	}
	s.Commit()

	xres, yres := cfg.Camera.XRes, cfg.Camera.YRes
	yview := float32(cfg.Camera.YView)
	camera := scene.NewCamera(
		cfg.Camera.ViewPoint.Vec(),
		cfg.Camera.LookAt.Vec(),
		cfg.Camera.UpVector.Vec(),
		yview,
		yview*float32(xres)/float32(yres),
		float32(cfg.Camera.FocusPlane),
		float32(cfg.Camera.LensSize),
	)

	tctx := tracer.Context{
		Scene:       s,
		Camera:      camera,
		XRes:        xres,
		YRes:        yres,
		Multisample: cfg.Sampling.Multisample,
	}
	factory := tracerFactory(tctx, cfg)

	if debugTrace {
		factory(1).RenderPixel(debugX, debugY, true)
		return nil
	}

	fb := texture.New(xres, yres)
	fb.FillStripes(stripeHeight, types.XYZ(0.6, 0.6, 0.6), types.XYZ(0.5, 0.5, 0.5))

	outputFile := filepath.Join(configDir, cfg.Scene.OutputFile)
	rend, err := renderer.New(renderer.Options{
		FrameW:       xres,
		FrameH:       yres,
		Multisample:  cfg.Sampling.Multisample,
		PreviewFile:  previewPath(outputFile),
		ShowProgress: true,
	}, factory)
	if err != nil {
		logger.Errorf("failed to set up renderer: %v", err)
		os.Exit(1)
	}

	if err = rend.Render(fb); err != nil {
		logger.Errorf("render failed: %v", err)
		os.Exit(1)
	}

	if err = fb.Write(outputFile); err != nil {
		logger.Errorf("failed to write output: %v", err)
		os.Exit(1)
	}
	logger.Noticef("wrote %q", outputFile)

	displayFrameStats(rend.Stats())
	return nil
}

func tracerFactory(tctx tracer.Context, cfg *config.Config) renderer.TracerFactory {
	if cfg.Sampling.Tracer == "whitted" {
		return func(seed int64) tracer.Tracer {
			return tracer.NewWhitted(tctx, cfg.Sampling.RecursionLevel, float32(cfg.Scene.BumpmapScale))
		}
	}
	pathCfg := tracer.PathConfig{
		MaxDepth:     cfg.Sampling.RecursionLevel,
		Clamp:        float32(cfg.Sampling.Clamp),
		Russian:      float32(cfg.Sampling.Russian),
		Reverse:      cfg.Sampling.Reverse,
		BumpScale:    float32(cfg.Scene.BumpmapScale),
		ForceFresnel: cfg.Sampling.ForceFresnell,
	}
	return func(seed int64) tracer.Tracer {
		sampler := tracer.NewStratifiedSampler(seed, cfg.Sampling.Multisample)
		return tracer.NewPath(tctx, pathCfg, sampler)
	}
}

// previewPath turns out/render.png into out/render.preview.png.
func previewPath(outputFile string) string {
	ext := filepath.Ext(outputFile)
	stem := strings.TrimSuffix(outputFile, ext)
	return stem + ".preview" + ext
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Render time", "Workers", "Pixels", "Tiles", "Rays", "Rays/sec", "Splats"})
	table.Append([]string{
		fmt.Sprintf("%s", stats.RenderTime),
		fmt.Sprintf("%d", stats.Workers),
		fmt.Sprintf("%d", stats.PixelsRendered),
		fmt.Sprintf("%d", stats.TilesRendered),
		fmt.Sprintf("%d", stats.Rays),
		fmt.Sprintf("%.0f", stats.RaysPerSec()),
		fmt.Sprintf("%d", stats.SplatsApplied),
	})
	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}

// ShowExampleConfig prints a commented render job description.
func ShowExampleConfig(ctx *cli.Context) error {
	fmt.Print(config.ExampleRenderFile)
	return nil
}
