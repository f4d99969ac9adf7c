// Package main implements the gochip8 CHIP-8 interpreter executable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gochip8/internal/app"
	"gochip8/internal/debug"
	"gochip8/internal/memory"
	"gochip8/internal/rom"
	"gochip8/internal/version"

	"github.com/retroenv/retrogolib/log"
)

type optionFlags struct {
	rom        string
	configFile string
	backend    string
	profile    string
	speed      int
	frames     int
	seed       uint64
	dump       string
	traceFile  string

	disasm  bool
	trace   bool
	debug   bool
	quiet   bool
	version bool
}

func main() {
	options := readArguments()

	if options.version {
		version.PrintBuildInfo(os.Stdout)
		return
	}

	if options.disasm {
		if err := disassembleFile(os.Stdout, options.rom); err != nil {
			fmt.Println(fmt.Errorf("disassembling failed: %w", err))
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := app.CreateLogger(options.debug || options.trace, options.quiet)
	if err := run(ctx, options, logger); err != nil {
		logger.Error("Interpreter failed", log.Err(err))
		stop()
		os.Exit(1)
	}
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.StringVar(&options.rom, "rom", "", "path to the CHIP-8 program to run")
	flags.StringVar(&options.configFile, "config", "", "path to a .toml or .json configuration file")
	flags.StringVar(&options.backend, "backend", "", "display backend: ebitengine, terminal or headless")
	flags.StringVar(&options.profile, "profile", "", "quirk profile: cosmac or chip48")
	flags.IntVar(&options.speed, "speed", 0, "instructions executed per 60 Hz frame")
	flags.IntVar(&options.frames, "frames", 0, "stop after the given number of frames")
	flags.Uint64Var(&options.seed, "seed", 0, "seed for the CXNN random generator")
	flags.StringVar(&options.dump, "dump", "", "write the final frame to a .png, .bmp or .txt file")
	flags.BoolVar(&options.disasm, "disasm", false, "print a disassembly listing of the program and exit")
	flags.BoolVar(&options.trace, "trace", false, "log every executed instruction")
	flags.StringVar(&options.traceFile, "tracefile", "", "write the instruction trace to a file")
	flags.BoolVar(&options.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&options.quiet, "q", false, "only log errors")
	flags.BoolVar(&options.version, "version", false, "show version information")
	help := flags.Bool("help", false, "show this help message")

	err := flags.Parse(os.Args[1:])
	if options.rom == "" && flags.NArg() > 0 {
		options.rom = flags.Arg(0)
	}

	if *help || err != nil || (options.rom == "" && !options.version) {
		printBanner()
		fmt.Printf("usage: gochip8 [options] <program file>\n\n")
		flags.PrintDefaults()
		fmt.Printf("\nkeys: 1234/QWER/ASDF/ZXCV keypad, P pause, N step, F5 reset, F12 screenshot, Esc quit\n")
		if *help {
			os.Exit(0)
		}
		os.Exit(1)
	}
	return options
}

func printBanner() {
	fmt.Println("[-----------------------------------]")
	fmt.Println("[ gochip8 - CHIP-8 interpreter      ]")
	fmt.Printf("[-----------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", version.GetVersion())
}

// loadConfig reads the configuration file and applies the command line
// overrides. Without an explicit file the default path is used if present.
func loadConfig(options optionFlags) (*app.Config, error) {
	config := app.NewConfig()

	path := options.configFile
	if path == "" {
		if _, err := os.Stat(app.GetDefaultConfigPath()); err == nil {
			path = app.GetDefaultConfigPath()
		}
	}
	if path != "" {
		if err := config.LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}
	}

	if options.backend != "" {
		config.Video.Backend = options.backend
	}
	if options.profile != "" {
		config.Emulation.QuirkProfile = options.profile
	}
	if options.speed > 0 {
		config.Emulation.CyclesPerFrame = options.speed
	}
	if options.frames > 0 {
		config.Emulation.MaxFrames = options.frames
	}
	if options.seed != 0 {
		config.Emulation.Seed = options.seed
	}
	if options.trace {
		config.Debug.CPUTracing = true
	}
	if options.traceFile != "" {
		config.Debug.TraceFile = options.traceFile
	}
	if options.debug {
		config.Debug.EnableLogging = true
	}
	return config, nil
}

// disassembleFile writes the listing of a program file as loaded at 0x200
func disassembleFile(w io.Writer, path string) error {
	program, err := rom.LoadFile(path)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "; %s\n", program); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	lines := debug.Disassemble(program.Data, memory.ProgramStart)
	if _, err := io.WriteString(w, debug.Listing(lines)); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	return nil
}

func run(ctx context.Context, options optionFlags, logger *log.Logger) (err error) {
	config, err := loadConfig(options)
	if err != nil {
		return err
	}

	application, err := app.NewApplication(config, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, application.Cleanup())
	}()

	if err := application.LoadROM(options.rom); err != nil {
		return err
	}

	runErr := application.Run(ctx)

	if options.dump != "" {
		if err := application.SaveFrame(options.dump); err != nil {
			return errors.Join(runErr, err)
		}
		logger.Info("Final frame written", log.String("path", options.dump))
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("Session finished",
		log.Int("frames", int(application.GetFrameCount())),
		log.String("uptime", application.GetUptime().String()),
		log.Stringer("emulator", application.GetEmulator()))
	return nil
}
