package capture

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

const (
	ffmpegSampleRate = 44100
	ffmpegChannels   = 1
)

// FFmpegDevices acquires audio through ffmpeg processes streaming raw
// s16le PCM over stdout. Microphone reads the configured input device;
// system audio reads a loopback/monitor source (e.g. a PulseAudio
// monitor). An empty Monitor means the host exposes no system audio.
type FFmpegDevices struct {
	Input      string // ffmpeg input format, e.g. "pulse" or "avfoundation"
	Microphone string
	Monitor    string
}

// CheckFFmpeg verifies the ffmpeg binary is available.
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	return nil
}

// OpenMicrophone spawns an ffmpeg capture of the microphone device.
func (d FFmpegDevices) OpenMicrophone(ctx context.Context, opts MicOptions) (Stream, error) {
	device := d.Microphone
	if device == "" {
		device = "default"
	}
	rate := opts.SampleRate
	if rate <= 0 {
		rate = ffmpegSampleRate
	}
	args := []string{"-f", d.inputFormat(), "-i", device}
	if opts.EchoCancellation || opts.NoiseSuppression {
		// highpass/lowpass is the closest ffmpeg analog of the
		// browser's noise-suppression constraint.
		args = append(args, "-af", "highpass=f=80,lowpass=f=12000")
	}
	args = append(args,
		"-ac", strconv.Itoa(ffmpegChannels),
		"-ar", strconv.Itoa(rate),
		"-f", "s16le", "-",
	)
	stream, err := startFFmpeg(ctx, args, rate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return stream, nil
}

// OpenDisplay spawns an ffmpeg capture of the system-audio monitor
// source. With no monitor configured the share yields a stream carrying
// zero audio tracks, which the engine reports as ErrNoSystemAudio.
func (d FFmpegDevices) OpenDisplay(ctx context.Context) (Stream, error) {
	if d.Monitor == "" {
		return &silentStream{}, nil
	}
	args := []string{
		"-f", d.inputFormat(), "-i", d.Monitor,
		"-ac", strconv.Itoa(ffmpegChannels),
		"-ar", strconv.Itoa(ffmpegSampleRate),
		"-f", "s16le", "-",
	}
	stream, err := startFFmpeg(ctx, args, ffmpegSampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShareCancelled, err)
	}
	return stream, nil
}

func (d FFmpegDevices) inputFormat() string {
	if d.Input == "" {
		return "pulse"
	}
	return d.Input
}

// silentStream models a display selection with no audio track.
type silentStream struct{}

func (silentStream) Read([]byte) (int, error) { return 0, io.EOF }
func (silentStream) Tracks() []Track          { return nil }
func (silentStream) ContentType() string      { return "audio/l16" }

func startFFmpeg(ctx context.Context, args []string, sampleRate int) (*ffmpegStream, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", append([]string{"-hide_banner", "-loglevel", "error"}, args...)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	s := &ffmpegStream{
		cmd:        cmd,
		stdout:     stdout,
		sampleRate: sampleRate,
		done:       make(chan struct{}),
	}
	go func() {
		// The process exiting on its own (device unplugged, source
		// gone) counts as the track ending externally.
		_ = cmd.Wait()
		s.endOnce.Do(func() { close(s.done) })
	}()
	return s, nil
}

// ffmpegStream is one ffmpeg capture process; the process is both the
// stream and its single hardware track.
type ffmpegStream struct {
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	sampleRate int
	done       chan struct{}
	endOnce    sync.Once
	stopOnce   sync.Once
}

func (s *ffmpegStream) Read(p []byte) (int, error) { return s.stdout.Read(p) }
func (s *ffmpegStream) Tracks() []Track            { return []Track{s} }
func (s *ffmpegStream) ContentType() string        { return "audio/l16" }
func (s *ffmpegStream) SampleRate() int            { return s.sampleRate }
func (s *ffmpegStream) Channels() int              { return ffmpegChannels }

// Stop terminates the capture process and closes its output.
func (s *ffmpegStream) Stop() {
	s.stopOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.stdout.Close()
	})
}

// Done is closed when the process exits, however that happens.
func (s *ffmpegStream) Done() <-chan struct{} { return s.done }
