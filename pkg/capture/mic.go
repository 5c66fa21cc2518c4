package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/harunnryd/voxnote/pkg/audio"
	"github.com/harunnryd/voxnote/pkg/logging"
)

// MicConfig configures the input device. An empty Device selects the
// system default; otherwise the first input device whose name contains
// Device (case-insensitive) is used.
type MicConfig struct {
	SampleRate      int
	FramesPerBuffer int
	Device          string
}

func (c MicConfig) withDefaults() MicConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.FramesPerBuffer <= 0 {
		c.FramesPerBuffer = 1024
	}
	return c
}

// MicSource captures mono 16-bit PCM from the default input device and
// emits it as audio/pcm chunks tagged with the device rate.
type MicSource struct {
	cfg    MicConfig
	logger *slog.Logger

	out    chan Chunk
	stop   chan struct{}
	wg     sync.WaitGroup
	stream *portaudio.Stream

	initialized bool
	closeOnce   sync.Once
	closeErr    error
}

// NewMicSource creates an unopened microphone source.
func NewMicSource(cfg MicConfig, logger *slog.Logger) *MicSource {
	return &MicSource{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(logger, "mic"),
		out:    make(chan Chunk, 32),
		stop:   make(chan struct{}),
	}
}

// Start opens the default input stream and begins emitting chunks.
func (s *MicSource) Start(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	s.initialized = true

	in := make([]int16, s.cfg.FramesPerBuffer)
	stream, err := s.openStream(in)
	if err != nil {
		_ = portaudio.Terminate()
		s.initialized = false
		return err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		s.initialized = false
		return err
	}
	s.stream = stream

	mime := audio.PCMMIME(s.cfg.SampleRate)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.out)
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			default:
			}
			if err := stream.Read(); err != nil {
				if errors.Is(err, portaudio.InputOverflowed) {
					s.logger.Warn("input_overflowed")
					continue
				}
				s.logger.Error("mic_read_failed", slog.String("error", err.Error()))
				return
			}
			data := make([]byte, len(in)*2)
			for i, v := range in {
				binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
			}
			select {
			case s.out <- Chunk{Data: data, MIME: mime}:
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Info("mic_opened",
		slog.Int("sample_rate", s.cfg.SampleRate),
		slog.Int("frames_per_buffer", s.cfg.FramesPerBuffer))
	return nil
}

func (s *MicSource) openStream(in []int16) (*portaudio.Stream, error) {
	name := strings.TrimSpace(s.cfg.Device)
	if name == "" {
		return portaudio.OpenDefaultStream(1, 0, float64(s.cfg.SampleRate), len(in), in)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.MaxInputChannels < 1 {
			continue
		}
		if !strings.Contains(strings.ToLower(dev.Name), strings.ToLower(name)) {
			continue
		}
		params := portaudio.LowLatencyParameters(dev, nil)
		params.Input.Channels = 1
		params.SampleRate = float64(s.cfg.SampleRate)
		params.FramesPerBuffer = len(in)
		return portaudio.OpenStream(params, in)
	}
	return nil, fmt.Errorf("input device not found: %s", name)
}

// Chunks returns the live chunk stream. The channel closes on Close.
func (s *MicSource) Chunks() <-chan Chunk { return s.out }

// Close stops the device exactly once and closes the chunk stream.
func (s *MicSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		if s.stream != nil {
			_ = s.stream.Stop()
			s.closeErr = s.stream.Close()
			s.stream = nil
		}
		if s.initialized {
			if err := portaudio.Terminate(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
			s.initialized = false
		}
		s.logger.Info("mic_released")
	})
	return s.closeErr
}

var _ Source = (*MicSource)(nil)
