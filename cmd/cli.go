// SPDX-License-Identifier: MIT
package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"melbar/internal/config"
	"melbar/pkg/build"
)

// Commands stored in config.Config.Command.
const (
	CommandSpectrum = ""         // Full-screen spectrum bar.
	CommandHeadless = "headless" // Frames to the transports only.
	CommandList     = "list"     // Print capture devices.
	CommandPick     = "pick"     // Interactive device picker, then the spectrum.
)

// options mirrors every flag. Values are only copied into the config when the
// flag was set, so the file and environment keep their say otherwise.
type options struct {
	configPath  string
	interactive bool

	device      int
	channels    int
	sampleRate  float64
	frames      int
	lowLatency  bool
	inputFile   string
	loop        bool
	gate        float64
	fftSize     int
	minFreq     float64
	maxFreq     float64
	bands       int
	kernelWidth int
	palette     string
	rows        int
	interval    time.Duration
	record      bool
	output      string
	bitDepth    int
	websocket   bool
	wsAddr      string
	udp         bool
	udpAddr     string
	udpInterval time.Duration
	logFrames   bool
	verbose     bool
	logFile     string
}

// ParseArgs parses args (without the program name), loads the configuration
// file and applies the flags on top. It returns nil and no error when cobra
// handled the invocation itself, as with --help and --version. The result
// is not validated.
func ParseArgs(args []string) (*config.Config, error) {
	var result *config.Config
	root := newRootCommand(&result)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return nil, err
	}
	return result, nil
}

func newRootCommand(result **config.Config) *cobra.Command {
	buildInfo := build.GetBuildFlags()
	opts := &options{}

	// run builds the configuration for the selected command.
	run := func(command string) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.apply(c.Flags(), cfg)
			cfg.Command = command
			if command == CommandList && opts.interactive {
				cfg.Command = CommandPick
			}
			*result = cfg
			return nil
		}
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Render live audio as a mel-scaled spectrum bar",
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: run(CommandSpectrum),
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	headlessCmd := &cobra.Command{
		Use:   "headless",
		Short: "Analyse without a terminal UI and publish frames to the enabled transports",
		Args:  cobra.NoArgs,
		RunE:  run(CommandHeadless),
	}
	rootCmd.AddCommand(headlessCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Args:  cobra.NoArgs,
		RunE:  run(CommandList),
	}
	listCmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false,
		"Pick a device and sample rate interactively, then start the spectrum")
	rootCmd.AddCommand(listCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"Configuration file (default ./"+config.DefaultConfigFile+" when present)")

	// Audio Device Configuration
	flags.IntVarP(&opts.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.IntVarP(&opts.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture, mixed down to mono for analysis")
	flags.Float64VarP(&opts.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&opts.frames, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	flags.BoolVarP(&opts.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	flags.StringVarP(&opts.inputFile, "input-file", "f", "",
		"Replay a PCM WAV file instead of capturing from a device")
	flags.BoolVar(&opts.loop, "loop", false,
		"Restart the input file when it ends")
	flags.Float64Var(&opts.gate, "gate", config.DefaultGateThreshold,
		"Silence blocks whose peak level is below this threshold (0 disables)")

	// Spectrum Configuration
	flags.IntVar(&opts.fftSize, "fft-size", config.DefaultFFTSize,
		"Samples per transform, a power of two")
	flags.Float64Var(&opts.minFreq, "min-freq", config.DefaultMinFreq,
		"Lowest analysed frequency in Hz")
	flags.Float64Var(&opts.maxFreq, "max-freq", config.DefaultMaxFreq,
		"Highest analysed frequency in Hz, at most half the sample rate")
	flags.IntVar(&opts.bands, "bands", config.DefaultBands,
		"Number of mel bands")
	flags.IntVar(&opts.kernelWidth, "kernel-width", config.DefaultKernelWidth,
		"Width of the cross-band smoothing kernel, odd")
	flags.StringVar(&opts.palette, "palette", config.DefaultPalette,
		"Colormap name (magma, heat)")
	flags.IntVar(&opts.rows, "rows", config.DefaultRows,
		"Rows per frame in headless mode")
	flags.DurationVar(&opts.interval, "interval", config.DefaultFrameInterval,
		"Time between frames")

	// Recording Configuration
	flags.BoolVarP(&opts.record, "record", "r", config.DefaultRecordInputStream,
		"Record the input to a WAV file")
	flags.StringVarP(&opts.output, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")
	flags.IntVar(&opts.bitDepth, "bit-depth", config.DefaultBitDepth,
		"Recording bit depth (16, 24 or 32)")

	// Transport Configuration
	flags.BoolVar(&opts.websocket, "websocket", false,
		"Broadcast frames as JSON to WebSocket clients")
	flags.StringVar(&opts.wsAddr, "ws-addr", config.DefaultWebSocketAddress,
		"WebSocket listen address")
	flags.BoolVar(&opts.udp, "udp", false,
		"Send band amplitudes as binary UDP packets")
	flags.StringVar(&opts.udpAddr, "udp-addr", config.DefaultUDPTargetAddress,
		"UDP target host:port")
	flags.DurationVar(&opts.udpInterval, "udp-interval", config.DefaultUDPSendInterval,
		"Time between UDP packets")
	flags.BoolVar(&opts.logFrames, "log-frames", false,
		"Log a summary of every frame at debug level")

	// Debug Configuration
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")
	flags.StringVar(&opts.logFile, "log-file", "",
		"Write logs to this file")

	return rootCmd
}

// apply copies every flag the user set into cfg.
func (o *options) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}

	set("device", func() { cfg.Audio.InputDevice = o.device })
	set("channels", func() { cfg.Audio.InputChannels = o.channels })
	set("sample-rate", func() { cfg.Audio.SampleRate = o.sampleRate })
	set("frames-per-buffer", func() { cfg.Audio.FramesPerBuffer = o.frames })
	set("low-latency", func() { cfg.Audio.LowLatency = o.lowLatency })
	set("input-file", func() { cfg.Audio.InputFile = o.inputFile })
	set("loop", func() { cfg.Audio.LoopFile = o.loop })
	set("gate", func() { cfg.Audio.GateThreshold = o.gate })

	set("fft-size", func() { cfg.Spectrum.FFTSize = o.fftSize })
	set("min-freq", func() { cfg.Spectrum.MinFreq = o.minFreq })
	set("max-freq", func() { cfg.Spectrum.MaxFreq = o.maxFreq })
	set("bands", func() { cfg.Spectrum.Bands = o.bands })
	set("kernel-width", func() { cfg.Spectrum.KernelWidth = o.kernelWidth })
	set("palette", func() { cfg.Display.Palette = o.palette })
	set("rows", func() { cfg.Display.Rows = o.rows })
	set("interval", func() { cfg.Display.FrameInterval = o.interval })

	set("record", func() { cfg.Recording.Enabled = o.record })
	set("output", func() { cfg.Recording.OutputFile = o.output })
	set("bit-depth", func() { cfg.Recording.BitDepth = o.bitDepth })

	set("websocket", func() { cfg.Transport.WebSocketEnabled = o.websocket })
	set("ws-addr", func() { cfg.Transport.WebSocketAddress = o.wsAddr })
	set("udp", func() { cfg.Transport.UDPEnabled = o.udp })
	set("udp-addr", func() { cfg.Transport.UDPTargetAddress = o.udpAddr })
	set("udp-interval", func() { cfg.Transport.UDPSendInterval = o.udpInterval })
	set("log-frames", func() { cfg.Transport.LogFrames = o.logFrames })

	set("verbose", func() {
		if o.verbose {
			cfg.LogLevel = "debug"
		}
	})
	set("log-file", func() { cfg.LogFile = o.logFile })

	// Defaults
	if cfg.Recording.Enabled && cfg.Recording.OutputFile == "" {
		cfg.Recording.OutputFile = "recording-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}
}
