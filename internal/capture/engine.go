package capture

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultChunkSize     = 4096
	defaultLevelInterval = 200 * time.Millisecond
)

// Engine starts capture sessions against a device provider.
type Engine struct {
	devices       Devices
	mixer         Mixer
	clock         clock.Clock
	chunkSize     int
	levelInterval time.Duration
}

// NewEngine creates a capture engine. A nil clock uses real time.
func NewEngine(devices Devices, mixer Mixer, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		devices:       devices,
		mixer:         mixer,
		clock:         clk,
		chunkSize:     defaultChunkSize,
		levelInterval: defaultLevelInterval,
	}
}

type sessionState int

const (
	stateRunning sessionState = iota
	statePaused
	stateStopped
)

// Session is one in-progress capture. It is ephemeral and never
// persisted; stopping it yields the finalized blob.
type Session struct {
	mu      sync.Mutex
	state   sessionState
	elapsed int
	level   float64
	chunks  [][]byte
	last    []byte

	stream Stream
	tracks []Track
	pcm    bool

	blob Blob // set once finalized

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Start acquires the streams for the requested mode and begins
// capturing. A session that fails acquisition is never left running
// and holds no tracks.
func (e *Engine) Start(ctx context.Context, mode Mode) (*Session, error) {
	stream, tracks, err := e.acquire(ctx, mode)
	if err != nil {
		return nil, err
	}

	_, pcm := stream.(PCMStream)
	s := &Session{
		state:  stateRunning,
		stream: stream,
		tracks: tracks,
		pcm:    pcm,
		stopCh: make(chan struct{}),
	}

	go s.readLoop(e.chunkSize)
	go s.timerLoop(e.clock)
	go s.levelLoop(e.clock, e.levelInterval)
	for _, track := range tracks {
		go s.watchTrack(track)
	}
	return s, nil
}

func (e *Engine) acquire(ctx context.Context, mode Mode) (Stream, []Track, error) {
	micOpts := MicOptions{
		EchoCancellation: true,
		NoiseSuppression: true,
		SampleRate:       44100,
	}

	if mode == ModeRoom {
		mic, err := e.devices.OpenMicrophone(ctx, micOpts)
		if err != nil {
			return nil, nil, err
		}
		return mic, mic.Tracks(), nil
	}

	system, err := e.devices.OpenDisplay(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(system.Tracks()) == 0 {
		return nil, nil, ErrNoSystemAudio
	}

	// Microphone is best-effort in virtual mode: a denied mic still
	// leaves the meeting's own audio capturable.
	mic, err := e.devices.OpenMicrophone(ctx, micOpts)
	if err != nil {
		return system, system.Tracks(), nil
	}

	mixed, err := e.mixer.Mix(system, mic)
	if err != nil {
		stopTracks(system.Tracks())
		stopTracks(mic.Tracks())
		return nil, nil, err
	}
	tracks := append(append([]Track{}, system.Tracks()...), mic.Tracks()...)
	return mixed, tracks, nil
}

// readLoop drains the live stream. Chunks are accumulated only while
// running: audio produced during a pause is discarded, so a stop after
// a pause finalizes only the pre-pause chunks.
func (s *Session) readLoop(chunkSize int) {
	buf := make([]byte, chunkSize)
	for {
		n, err := s.stream.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.mu.Lock()
			if s.state == stateRunning {
				s.chunks = append(s.chunks, chunk)
				s.last = chunk
			}
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
		select {
		case <-s.stopCh:
			return
		default:
		}
	}
}

// timerLoop advances the elapsed-seconds counter once per second while
// the session is running and not paused.
func (s *Session) timerLoop(clk clock.Clock) {
	ticker := clk.Ticker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state == stateRunning {
				s.elapsed++
			}
			s.mu.Unlock()
		}
	}
}

// levelLoop periodically derives the amplitude level from the most
// recent chunk. Sampling is suspended while paused.
func (s *Session) levelLoop(clk clock.Clock, interval time.Duration) {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state == stateRunning && s.last != nil {
				if s.pcm {
					s.level = pcmLevel(s.last)
				} else {
					s.level = byteLevel(s.last)
				}
			}
			s.mu.Unlock()
		}
	}
}

// watchTrack stops the session when a track ends externally (the user
// ends the share from the system UI rather than the app).
func (s *Session) watchTrack(track Track) {
	select {
	case <-s.stopCh:
	case <-track.Done():
		s.finalize()
	}
}

// Pause suspends chunk accumulation, the elapsed counter, and level
// sampling. No-op unless running.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateRunning {
		s.state = statePaused
	}
}

// Resume continues a paused session. No-op unless paused.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == statePaused {
		s.state = stateRunning
	}
}

// Stop finalizes the capture: accumulated chunks become one immutable
// blob, every acquired track is released, and all loops are cancelled.
// Safe to call more than once; later calls return the same blob.
func (s *Session) Stop() (Blob, int, error) {
	s.finalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob, s.elapsed, nil
}

func (s *Session) finalize() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.state = stateStopped
		s.level = 0

		var size int
		for _, c := range s.chunks {
			size += len(c)
		}
		data := make([]byte, 0, size)
		for _, c := range s.chunks {
			data = append(data, c...)
		}
		if pcm, ok := s.stream.(PCMStream); ok {
			s.blob = Blob{
				Data:        encodeWAV(data, pcm.SampleRate(), pcm.Channels()),
				ContentType: "audio/wav",
			}
		} else {
			s.blob = Blob{Data: data, ContentType: s.stream.ContentType()}
		}
		s.chunks = nil
		s.last = nil

		tracks := s.tracks
		s.tracks = nil
		s.mu.Unlock()

		close(s.stopCh)
		stopTracks(tracks)
	})
}

// Level returns the current amplitude level in [0, 1].
func (s *Session) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Elapsed returns the recorded seconds so far.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Stopped reports whether the session has been finalized, either by
// Stop or by a track ending externally.
func (s *Session) Stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func stopTracks(tracks []Track) {
	for _, t := range tracks {
		t.Stop()
	}
}

// pcmLevel is the normalized RMS amplitude of s16le samples.
func pcmLevel(chunk []byte) float64 {
	if len(chunk) < 2 {
		return 0
	}
	var sum float64
	n := len(chunk) / 2
	for i := 0; i < n; i++ {
		sample := int16(uint16(chunk[2*i]) | uint16(chunk[2*i+1])<<8)
		v := float64(sample) / 32768
		sum += v * v
	}
	level := math.Sqrt(sum / float64(n))
	if level > 1 {
		level = 1
	}
	return level
}

// byteLevel averages raw byte magnitudes for opaque encodings.
func byteLevel(chunk []byte) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var sum int
	for _, b := range chunk {
		sum += int(b)
	}
	return float64(sum) / float64(len(chunk)) / 255
}
