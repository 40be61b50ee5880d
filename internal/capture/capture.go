// Package capture acquires live audio streams (microphone, and
// optionally system audio), mixes them into a single stream, samples an
// amplitude level for a UI meter, and finalizes the captured audio into
// one immutable blob with an elapsed duration.
package capture

import (
	"context"
	"errors"
	"io"
)

// Mode selects the capture sources.
type Mode string

const (
	// ModeRoom captures only the local microphone.
	ModeRoom Mode = "room"
	// ModeVirtual captures system audio (a meeting call) mixed with the
	// local microphone when one is available.
	ModeVirtual Mode = "virtual"
)

// Acquisition failures. None of these are retried automatically; the
// caller must start a new capture.
var (
	// ErrPermissionDenied means microphone access was refused.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrShareCancelled means the user dismissed the system-audio share prompt.
	ErrShareCancelled = errors.New("share cancelled")
	// ErrNoSystemAudio means the selected share carries no audio track.
	ErrNoSystemAudio = errors.New("selected source has no system audio")
)

// Track is one acquired hardware audio track. Every track handed to the
// engine is stopped on session teardown, no matter how the session ends.
type Track interface {
	// Stop releases the underlying device resource.
	Stop()
	// Done is closed when the track ends outside the engine's control,
	// e.g. the user stops the share from the system UI.
	Done() <-chan struct{}
}

// Stream is a live audio byte stream backed by one or more tracks.
// Read returns io.EOF once every backing track has stopped.
type Stream interface {
	io.Reader
	Tracks() []Track
	ContentType() string
}

// PCMStream is implemented by streams carrying raw little-endian 16-bit
// PCM. The engine finalizes such streams into a WAV blob and computes
// amplitude from sample values instead of raw bytes.
type PCMStream interface {
	Stream
	SampleRate() int
	Channels() int
}

// MicOptions are the constraints requested for microphone acquisition.
type MicOptions struct {
	EchoCancellation bool
	NoiseSuppression bool
	SampleRate       int
}

// Devices acquires live streams from the host. Implementations map the
// sentinel errors above onto their platform's failure modes.
type Devices interface {
	OpenMicrophone(ctx context.Context, opts MicOptions) (Stream, error)
	// OpenDisplay acquires the system/display audio share. The returned
	// stream may carry zero audio tracks when the selected source has
	// no audio; the engine turns that into ErrNoSystemAudio.
	OpenDisplay(ctx context.Context) (Stream, error)
}

// Mixer combines a system-audio stream and a microphone stream into one
// stream carrying both speakers.
type Mixer interface {
	Mix(system, mic Stream) (Stream, error)
}

// Blob is the finalized, immutable capture output.
type Blob struct {
	Data        []byte
	ContentType string
}
