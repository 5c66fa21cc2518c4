package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/voxnote/pkg/adapters/transcriber"
	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/capture"
	"github.com/harunnryd/voxnote/pkg/logging"
	"github.com/harunnryd/voxnote/pkg/metrics"
	"github.com/harunnryd/voxnote/pkg/recorder"
	"github.com/harunnryd/voxnote/pkg/redact"
	"github.com/harunnryd/voxnote/pkg/runner"
	"github.com/harunnryd/voxnote/pkg/voxnote"
	"github.com/harunnryd/voxnote/pkg/webhook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	audioOnly := flag.Bool("audio-only", false, "capture audio without transcription")
	inputFile := flag.String("input", "", "transcribe a pre-recorded wav file and exit")
	flag.Parse()

	cfg, err := voxnote.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.InitLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	observer, closeObserver := buildObserver(cfg, logger)
	defer closeObserver()

	var tr transcriber.Transcriber
	if cfg.Transcription.Enabled && !*audioOnly {
		tr, err = voxnote.DefaultRegistry().Build(cfg.Transcription.Provider, cfg, uuid.NewString())
		if err != nil {
			logger.Error("transcriber_build_failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if *inputFile != "" {
		if err := transcribeFile(tr, *inputFile); err != nil {
			logger.Error("input_mode_failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	machine := recorder.NewMachine(recorder.Config{
		NewSource: func() (capture.Source, error) {
			return capture.NewMicSource(capture.MicConfig{
				SampleRate: cfg.Capture.SampleRate,
				Device:     cfg.Capture.Device,
			}, logger), nil
		},
		Transcriber: tr,
		Submitter:   webhook.NewClient(time.Duration(cfg.Webhook.TimeoutMS) * time.Millisecond),
		WebhookURL:  cfg.Webhook.URL,
		Observer:    observer,
		Logger:      logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lr := runner.NewLifecycleRunner(&machineDrainer{machine: machine}, runner.Hooks{
		OnStart: func() {
			go func() {
				interactiveLoop(ctx, machine)
				cancel()
			}()
		},
	}, 15*time.Second)
	if err := lr.Run(ctx); err != nil {
		logger.Error("shutdown_incomplete", slog.String("error", err.Error()))
	}
}

func buildObserver(cfg voxnote.Config, logger *slog.Logger) (metrics.Observer, func()) {
	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		return metrics.NoopObserver{}, func() {}
	}
	jsonl, err := metrics.NewJSONLFile(cfg.Metrics.Path)
	if err != nil {
		logger.Warn("metrics_file_unavailable",
			slog.String("path", cfg.Metrics.Path),
			slog.String("error", err.Error()))
		return metrics.NoopObserver{}, func() {}
	}
	async := metrics.NewAsyncObserver(jsonl, 64)
	return async, func() {
		async.Close()
		_ = jsonl.Close()
	}
}

// transcribeFile runs headless: one WAV file in, one transcript out.
func transcribeFile(tr transcriber.Transcriber, path string) error {
	if tr == nil {
		return fmt.Errorf("input mode requires transcription to be enabled")
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".wav" {
		return fmt.Errorf("input mode accepts wav files, got %s", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := tr.Transcribe(context.Background(), audio.EncodedAudio{
		Data: data,
		MIME: audio.MIMEWAV,
	})
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

type machineDrainer struct {
	machine *recorder.Machine
}

// Drain finalizes an in-flight recording so the device is released and
// the captured audio is not lost on Ctrl+C.
func (d *machineDrainer) Drain() error {
	if d.machine.Status() != recorder.StatusRecording {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.machine.Stop(ctx)
}

func interactiveLoop(ctx context.Context, m *recorder.Machine) {
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println()
		fmt.Println("Press Enter to start recording (Ctrl+C to quit).")
		if !waitLine(ctx, in) {
			return
		}
		if err := m.Start(ctx); err != nil {
			fmt.Println("Could not start recording:", err)
			_ = m.Reset()
			continue
		}

		fmt.Println("Recording... press Enter to stop.")
		if !waitLine(ctx, in) {
			return
		}
		if err := m.Stop(ctx); err != nil {
			fmt.Println("Recording failed:", m.ErrMessage())
			if m.Audio().Empty() {
				_ = m.Reset()
				continue
			}
			fmt.Println("The audio was captured and can still be submitted.")
		} else if t := m.Transcript(); t != "" {
			fmt.Println("Transcript:")
			fmt.Println("  " + t)
		} else {
			fmt.Printf("Captured %d seconds of audio.\n", m.Elapsed())
		}

		note := promptNote(ctx, in)
		fmt.Println("Submitting...")
		if err := m.Submit(ctx, note); err != nil {
			fmt.Println("Submission failed:", err)
		} else {
			fmt.Println("Submitted.")
		}
		_ = m.Reset()
	}
}

func promptNote(ctx context.Context, in *bufio.Scanner) recorder.Note {
	note := recorder.Note{}
	fmt.Print("Note name: ")
	if !waitLine(ctx, in) {
		return note
	}
	note.Name = strings.TrimSpace(in.Text())
	fmt.Print("Client name: ")
	if !waitLine(ctx, in) {
		return note
	}
	note.ClientName = strings.TrimSpace(in.Text())
	fmt.Print("Company name: ")
	if !waitLine(ctx, in) {
		return note
	}
	note.CompanyName = strings.TrimSpace(in.Text())
	return note
}

// waitLine reads one line from stdin, giving up when the context ends.
func waitLine(ctx context.Context, in *bufio.Scanner) bool {
	lines := make(chan bool, 1)
	go func() { lines <- in.Scan() }()
	select {
	case <-ctx.Done():
		return false
	case ok := <-lines:
		return ok
	}
}
