// ABOUTME: Entry point for the oggplay player
// ABOUTME: Parses CLI flags, wires source, driver, sink and TUI, and plays one stream
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oggplay/oggplay/internal/config"
	"github.com/oggplay/oggplay/internal/ui"
	"github.com/oggplay/oggplay/internal/version"
	"github.com/oggplay/oggplay/pkg/audio/header"
	"github.com/oggplay/oggplay/pkg/audio/output"
	"github.com/oggplay/oggplay/pkg/playback"
	"github.com/oggplay/oggplay/pkg/source"
)

var (
	configPath   = flag.String("config", "", "YAML config file")
	outputName   = flag.String("output", "oto", "Audio output: oto, malgo, portaudio, wav, null")
	bufferBlocks = flag.Int("buffer-blocks", 4, "Decoded blocks buffered ahead of the sink (1-64)")
	readTimeout  = flag.Duration("read-timeout", 0, "Fail when a source read stalls this long (0 disables)")
	outputRate   = flag.Int("output-rate", 0, "Resample to this rate (0 keeps the stream rate)")
	resampleQ    = flag.String("resample", "linear", "Resampler quality: linear or high")
	wavPath      = flag.String("wav", "", "Write to this WAV file instead of a device")
	volume       = flag.Int("volume", 100, "Initial volume (0-100)")
	logFile      = flag.String("log-file", "oggplay.log", "Log file path")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file|url|s3://bucket/key|->\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	location := flag.Arg(0)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	useTUI := !cfg.NoTUI

	// Set up logging
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	os.Exit(play(location, cfg, useTUI))
}

// loadConfig layers defaults, the config file and explicitly set flags.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "output":
			cfg.Output = *outputName
		case "buffer-blocks":
			cfg.BufferBlocks = *bufferBlocks
		case "read-timeout":
			cfg.ReadTimeout = *readTimeout
		case "output-rate":
			cfg.OutputRate = *outputRate
		case "resample":
			cfg.Resample = *resampleQ
		case "wav":
			cfg.WAVPath = *wavPath
			cfg.Output = "wav"
		case "volume":
			cfg.Volume = *volume
		case "log-file":
			cfg.LogFile = *logFile
		case "no-tui":
			cfg.NoTUI = *noTUI
		}
	})
	return cfg, cfg.Validate()
}

// sinkHolder hands the sink acquired by the driver to the volume handler.
type sinkHolder struct {
	mu  sync.Mutex
	out output.Output
}

func (h *sinkHolder) set(out output.Output) {
	h.mu.Lock()
	h.out = out
	h.mu.Unlock()
}

func (h *sinkHolder) volumeControl() (output.VolumeControl, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	vc, ok := h.out.(output.VolumeControl)
	return vc, ok
}

func play(location string, cfg config.Config, useTUI bool) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !useTUI {
		log.Printf("Starting %s %s: %s", version.Product, version.Version, location)
	}

	// TUI setup
	var (
		tuiProg    *tea.Program
		volumeCtrl *ui.VolumeControl
		tuiDone    = make(chan struct{})
	)
	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		var err error
		tuiProg, err = ui.Run(volumeCtrl, cfg.Volume)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			defer close(tuiDone)
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
	} else {
		close(tuiDone)
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}
	updateTUI(ui.StatusMsg{Location: location, Volume: cfg.Volume})

	var sink sinkHolder
	driver, err := playback.NewDriver(playback.Config{
		OpenSource: func(ctx context.Context) (io.ReadCloser, error) {
			opts := source.Options{
				ReadTimeout: cfg.ReadTimeout,
				UserAgent:   version.UserAgent(),
			}
			if strings.HasPrefix(location, "s3://") {
				opts.S3 = source.NewS3Client(source.S3Config{
					Region:    cfg.S3Region,
					Endpoint:  cfg.S3Endpoint,
					AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
					SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				})
			}
			return source.Open(ctx, location, opts)
		},
		OpenSink: func(ctx context.Context) (output.Output, error) {
			out, err := output.New(cfg.Output, output.Options{Path: cfg.WAVPath, Volume: &cfg.Volume})
			if err != nil {
				return nil, err
			}
			sink.set(out)
			return out, nil
		},
		BufferBlocks:    cfg.BufferBlocks,
		ReadSize:        cfg.ReadSize,
		DrainPoll:       cfg.DrainPoll,
		DrainTimeout:    cfg.DrainTimeout,
		OutputRate:      cfg.OutputRate,
		ResampleQuality: cfg.Resample,
		OnStateChange: func(s playback.State) {
			updateTUI(ui.StatusMsg{State: s.String()})
		},
		OnDescriptor: func(desc *header.Descriptor) {
			logTags(desc)
			format := desc.Format()
			updateTUI(ui.StatusMsg{
				Codec:      format.Codec,
				SampleRate: format.SampleRate,
				Channels:   format.Channels,
				BitDepth:   format.BitDepth,
				Title:      desc.Comment("TITLE"),
				Artist:     desc.Comment("ARTIST"),
				Album:      desc.Comment("ALBUM"),
			})
		},
	})
	if err != nil {
		log.Printf("Failed to create driver: %v", err)
		return 1
	}

	// Start volume control handler if TUI is enabled
	if volumeCtrl != nil {
		go handleVolumeControl(ctx, cancel, &sink, volumeCtrl)
	}

	// Start stats update loop for TUI
	if tuiProg != nil {
		go statsUpdateLoop(ctx, driver, cfg.OutputRate, updateTUI)
	}

	err = driver.Run(ctx)
	code := 0
	switch {
	case err == nil:
		log.Printf("Playback finished")
	case errors.Is(err, context.Canceled):
		log.Printf("Playback stopped")
	default:
		log.Printf("Playback failed: %v", err)
		updateTUI(ui.StatusMsg{Err: err.Error()})
		code = 1
	}

	if tuiProg != nil {
		pushStats(driver, cfg.OutputRate, updateTUI)
		if code != 0 {
			// Leave the error on screen until the user quits
			select {
			case <-tuiDone:
			case <-time.After(5 * time.Second):
			}
		}
		tuiProg.Quit()
	}
	<-tuiDone
	if code != 0 && useTUI {
		fmt.Fprintf(os.Stderr, "oggplay: %v\n", err)
	}
	return code
}

func logTags(desc *header.Descriptor) {
	for _, key := range desc.CommentKeys() {
		for _, v := range desc.Comments(key) {
			log.Printf("tag %s=%s", key, v)
		}
	}
}

// handleVolumeControl processes volume changes and quit requests from TUI
func handleVolumeControl(ctx context.Context, cancel context.CancelFunc, sink *sinkHolder, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			if vc, ok := sink.volumeControl(); ok {
				vc.SetVolume(vol.Volume)
				vc.SetMuted(vol.Muted)
			}
		case <-volumeCtrl.Quit:
			log.Printf("Received quit signal from TUI")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with playback statistics
func statsUpdateLoop(ctx context.Context, driver *playback.Driver, outputRate int, updateTUI func(ui.StatusMsg)) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pushStats(driver, outputRate, updateTUI)
		}
	}
}

// pushStats sends a stats snapshot. Frames are counted at the sink rate,
// which is outputRate when resampling.
func pushStats(driver *playback.Driver, outputRate int, updateTUI func(ui.StatusMsg)) {
	stats := driver.Stats()
	rate := outputRate
	if desc := driver.Descriptor(); desc != nil && rate == 0 {
		rate = desc.SampleRate
	}
	var seconds float64
	if rate > 0 {
		seconds = float64(stats.Frames) / float64(rate)
	}
	queueLen, queueCap := driver.QueueDepth()
	updateTUI(ui.StatusMsg{
		Stats: &ui.PlaybackStats{
			Pages:        stats.Pages,
			Packets:      stats.Packets,
			Submitted:    stats.Submitted,
			DecodeErrors: stats.DecodeErrors,
			Resyncs:      stats.Resyncs,
			Gaps:         stats.Gaps,
			CorruptPages: stats.CorruptPages,
			SkippedBytes: stats.SkippedBytes,
			Seconds:      seconds,
		},
		QueueLen: queueLen,
		QueueCap: queueCap,
	})
}
