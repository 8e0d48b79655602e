// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"melbar/cmd"
	"melbar/internal/analysis"
	"melbar/internal/audio"
	"melbar/internal/config"
	applog "melbar/internal/log"
	"melbar/internal/transport"
	"melbar/internal/transport/udp"
	"melbar/internal/tui"
	"melbar/internal/visualizer"
	"melbar/pkg/build"
)

// main is the entry point for the spectrum bar.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Merge defaults, config file, environment and flags, then validate
//   - Open the capture device or the WAV file
//   - Build the analysis pipeline and the transports
//
// 2. Concurrent Phase (Hot Path):
//   - Capture or replay fills the mailbox
//   - The terminal UI or the headless runner renders frames
//   - Transports publish frames and packets
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals or quitting the UI
//   - Stop transports, recording and capture
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Only a binary stripped of its build info ends up here.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v", err)
	}

	cfg, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		return // --help or --version
	}

	if err := run(cfg); err != nil {
		applog.Fatalf("%v", err)
	}
}

func run(cfg *config.Config) error {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	applog.SetLevel(level)

	closeLog, err := setupLogOutput(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	switch cfg.Command {
	case cmd.CommandList:
		return listDevices()
	case cmd.CommandPick:
		ok, err := pickDevice(cfg)
		if err != nil || !ok {
			return err
		}
	}

	in, err := openInput(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.stop(); err != nil {
			applog.Errorf("Audio: Error closing input: %v", err)
		}
		if cfg.Recording.Enabled {
			fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.OutputFile)
		}
	}()

	pipeline, err := analysis.NewPipeline(cfg.AnalysisParams(), in.source)
	if err != nil {
		return err
	}

	sink, publisher, err := openTransports(cfg, pipeline)
	if err != nil {
		return err
	}
	defer func() {
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				applog.Warnf("Transport: Error closing UDP publisher: %v", err)
			}
		}
		if err := sink.Close(); err != nil {
			applog.Warnf("Transport: Error closing: %v", err)
		}
	}()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if publisher != nil {
		publisher.Start()
	}

	if cfg.Command == cmd.CommandHeadless {
		return runHeadless(cfg, pipeline, sink, in)
	}

	var frames transport.Transport
	if len(sink) > 0 {
		frames = sink
	}
	model := tui.NewSpectrumModel(pipeline, frames, cfg.Display.FrameInterval, in.name)
	return tui.RunSpectrum(model)
}

// setupLogOutput sends logs to cfg.LogFile when set. The terminal UI owns the
// screen, so without a log file its logs are discarded.
func setupLogOutput(cfg *config.Config) (func(), error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		applog.SetOutput(f)
		return func() {
			applog.SetOutput(os.Stderr)
			f.Close()
		}, nil
	}

	switch cfg.Command {
	case cmd.CommandSpectrum, cmd.CommandPick:
		applog.SetOutput(io.Discard)
		return func() { applog.SetOutput(os.Stderr) }, nil
	}
	return func() {}, nil
}

func listDevices() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.ListDevices(os.Stdout)
}

// pickDevice runs the interactive picker and stores the choice in cfg. It
// reports false when the user left without choosing.
func pickDevice(cfg *config.Config) (bool, error) {
	if err := audio.Initialize(); err != nil {
		return false, err
	}
	sel, ok, err := tui.RunDevicePicker()
	// openInput initializes PortAudio again for the chosen device.
	if termErr := audio.Terminate(); err == nil {
		err = termErr
	}
	if err != nil || !ok {
		return false, err
	}

	cfg.Audio.InputDevice = sel.DeviceID
	cfg.Audio.SampleRate = sel.SampleRate
	cfg.Audio.InputFile = ""
	return true, nil
}

// input is a running sample source and its shutdown hook.
type input struct {
	source   analysis.SampleSource
	name     string
	stop     func() error
	finished <-chan struct{} // Closed when a replayed file ends; nil for live capture.
}

func openInput(cfg *config.Config) (*input, error) {
	if cfg.Audio.InputFile != "" {
		return openFileInput(cfg)
	}
	return openDeviceInput(cfg)
}

func openFileInput(cfg *config.Config) (*input, error) {
	src, err := audio.OpenFile(cfg.Audio.InputFile, cfg)
	if err != nil {
		return nil, err
	}
	// Analysis runs at the file's rate.
	cfg.Audio.SampleRate = src.SampleRate()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(err, src.Stop())
	}
	if cfg.Recording.Enabled {
		if err := src.StartRecording(cfg.Recording.OutputFile, cfg.Recording.BitDepth); err != nil {
			return nil, errors.Join(err, src.Stop())
		}
	}

	src.Start()
	return &input{
		source:   src,
		name:     filepath.Base(cfg.Audio.InputFile),
		stop:     src.Stop,
		finished: src.Finished(),
	}, nil
}

func openDeviceInput(cfg *config.Config) (*input, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := audio.Initialize(); err != nil {
		return nil, err
	}

	engine, err := audio.NewEngine(cfg)
	if err != nil {
		return nil, errors.Join(err, audio.Terminate())
	}
	shutdown := func() error {
		return errors.Join(engine.Close(), audio.Terminate())
	}

	// CRITICAL: Start of real-time audio processing
	// The first call to StartInputStream triggers PortAudio to begin
	// calling the callback function, marking the start of the hot path
	if err := engine.StartInputStream(); err != nil {
		return nil, errors.Join(err, shutdown())
	}
	if cfg.Recording.Enabled {
		if err := engine.StartRecording(cfg.Recording.OutputFile, cfg.Recording.BitDepth); err != nil {
			return nil, errors.Join(err, shutdown())
		}
	}

	return &input{
		source: engine,
		name:   engine.DeviceName(),
		stop:   shutdown,
	}, nil
}

// openTransports builds the frame sinks and the optional UDP publisher. The
// publisher reads amplitudes straight from the pipeline on its own clock.
func openTransports(cfg *config.Config, pipeline *analysis.Pipeline) (transport.Multi, *udp.UDPPublisher, error) {
	var sinks transport.Multi

	if cfg.Transport.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, ws)
	}
	if cfg.Transport.LogFrames || (cfg.Command == cmd.CommandHeadless && len(sinks) == 0) {
		sinks = append(sinks, transport.NewLoggingTransport())
	}

	if !cfg.Transport.UDPEnabled {
		return sinks, nil, nil
	}

	sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
	if err != nil {
		return nil, nil, errors.Join(err, sinks.Close())
	}
	publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, pipeline)
	if err != nil {
		return nil, nil, errors.Join(err, sender.Close(), sinks.Close())
	}
	return sinks, publisher, nil
}

func runHeadless(cfg *config.Config, pipeline *analysis.Pipeline, sink transport.Transport, in *input) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := visualizer.NewRunner(pipeline, sink, cfg.Display.Rows, cfg.Display.FrameInterval)
	if err != nil {
		return err
	}
	runner.Start(ctx)
	applog.Infof("Headless: Rendering %d rows every %s from %s, Ctrl+C to stop", cfg.Display.Rows, cfg.Display.FrameInterval, in.name)

	// Block until termination signal is received
	select {
	case <-ctx.Done():
	case <-in.finished:
		applog.Infof("Headless: Input finished")
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================
	return runner.Stop()
}
