// Package main implements gones, a headless demo/trace-runner binary for
// the NES emulation core. The core itself has no GUI surface (spec §1,
// §6): this binary loads a ROM, runs it for a fixed number of frames, and
// optionally dumps a nestest-style instruction trace or a PPM screenshot,
// for scripted testing and automation rather than interactive play.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"gones/internal/app"
	"gones/internal/bus"
	"gones/internal/cartridge"
	"gones/internal/ppu"
	"gones/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "path to an iNES/NES 2.0 ROM file")
		configFile = flag.String("config", "", "path to an engine config file (default: ./config/gones.json)")
		frames     = flag.Int("frames", 120, "number of frames to run")
		tracePath  = flag.String("trace", "", "write a nestest-style CPU trace to this file")
		screenshot = flag.String("screenshot", "", "write a PPM screenshot of the final frame to this file")
		showVer    = flag.Bool("version", false, "print version information and exit")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVer {
		version.PrintBuildInfo()
		return
	}

	if *romFile == "" {
		fmt.Fprintln(os.Stderr, "a ROM file is required, see -help")
		os.Exit(1)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	cfg := app.NewEngineConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}

	cart, err := cartridge.LoadFromFile(*romFile)
	if err != nil {
		log.Fatalf("loading ROM %s: %v", *romFile, err)
	}

	console := bus.New()
	console.LoadCartridge(cart)
	console.SetAudioSampleRate(cfg.SampleRate)

	var traceFile *os.File
	if *tracePath != "" {
		traceFile, err = os.Create(*tracePath)
		if err != nil {
			log.Fatalf("creating trace file: %v", err)
		}
		defer traceFile.Close()
		console.SetTraceWriter(traceFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runFrames(ctx, console, *frames)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("run failed: %v", err)
	}

	fmt.Printf("ran %d frames (%d CPU cycles)\n", console.GetFrameCount(), console.GetCycleCount())

	if *screenshot != "" {
		indices := console.PPU.GetFrameBuffer()
		if err := savePPM(indices, *screenshot); err != nil {
			log.Fatalf("writing screenshot: %v", err)
		}
		fmt.Printf("wrote %s\n", *screenshot)
	}
}

// runFrames steps the console frame-by-frame, checking for cancellation
// between frames so an interrupt signal stops cleanly at a frame boundary
// rather than mid-instruction.
func runFrames(ctx context.Context, console *bus.Bus, frameCount int) error {
	for i := 0; i < frameCount; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		console.Frame()
	}
	return nil
}

// savePPM writes a 256x240 frame buffer of NES palette indices as a plain
// ASCII PPM, converting through the display color table.
func savePPM(indices [256 * 240]uint8, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "P3\n256 240\n255\n")
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			rgb := ppu.NESColorToRGB(indices[y*256+x])
			r := (rgb >> 16) & 0xFF
			g := (rgb >> 8) & 0xFF
			b := rgb & 0xFF
			fmt.Fprintf(f, "%d %d %d ", r, g, b)
		}
		fmt.Fprintln(f)
	}
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "gones - headless NES core demo/trace runner")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "USAGE:")
	fmt.Fprintln(os.Stderr, "  gones -rom <file> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "OPTIONS:")
	flag.PrintDefaults()
}
