package capture

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func samples(vals ...int16) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

// pcmFakeStream is a fakeStream that reports a PCM format.
type pcmFakeStream struct {
	*fakeStream
	rate, chans int
}

func (s *pcmFakeStream) SampleRate() int { return s.rate }
func (s *pcmFakeStream) Channels() int   { return s.chans }

func newPCMStream(tracks ...Track) *pcmFakeStream {
	return &pcmFakeStream{fakeStream: newFakeStream(tracks...), rate: 44100, chans: 1}
}

func TestMixSamplesSumsAndClips(t *testing.T) {
	got := mixSamples(samples(100, 30000, -30000), samples(-40, 10000, -10000))
	want := samples(60, 32767, -32768)
	if !bytes.Equal(got, want) {
		t.Fatalf("mixSamples = %v, want %v", got, want)
	}
}

func TestMixOverlappingStreams(t *testing.T) {
	system := newPCMStream(newFakeTrack())
	mic := newPCMStream(newFakeTrack())

	mixed, err := PCMMixer{}.Mix(system, mic)
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if pcm, ok := mixed.(PCMStream); !ok || pcm.SampleRate() != 44100 {
		t.Fatal("mixed stream should carry the system stream's PCM format")
	}
	if len(mixed.Tracks()) != 2 {
		t.Fatalf("tracks = %d, want both inputs", len(mixed.Tracks()))
	}

	system.push(samples(1000, 2000))
	mic.push(samples(10, 20))
	system.close()
	mic.close()

	out, err := io.ReadAll(mixed)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := samples(1010, 2020); !bytes.Equal(out, want) {
		t.Fatalf("mixed = %v, want %v", out, want)
	}
}

// TestMixPassThroughAfterOneSideEnds keeps audio flowing when the
// microphone ends before the system share does.
func TestMixPassThroughAfterOneSideEnds(t *testing.T) {
	system := newPCMStream(newFakeTrack())
	mic := newPCMStream(newFakeTrack())

	mixed, err := PCMMixer{}.Mix(system, mic)
	if err != nil {
		t.Fatalf("mix: %v", err)
	}

	mic.close()
	system.push(samples(5, 6, 7))

	buf := make([]byte, 16)
	n, err := mixed.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := samples(5, 6, 7); !bytes.Equal(buf[:n], want) {
		t.Fatalf("pass-through = %v, want %v", buf[:n], want)
	}

	system.close()
	rest, err := io.ReadAll(mixed)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected trailing data: %v", rest)
	}
}

func TestMixUnevenLengthsFlushRemainder(t *testing.T) {
	system := newPCMStream(newFakeTrack())
	mic := newPCMStream(newFakeTrack())

	mixed, err := PCMMixer{}.Mix(system, mic)
	if err != nil {
		t.Fatalf("mix: %v", err)
	}

	system.push(samples(100, 200, 300))
	mic.push(samples(1))
	system.close()
	mic.close()

	out, err := io.ReadAll(mixed)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := samples(101, 200, 300); !bytes.Equal(out, want) {
		t.Fatalf("mixed = %v, want %v", out, want)
	}
}
