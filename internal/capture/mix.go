package capture

import "io"

// PCMMixer combines two s16le PCM streams sample-wise into one, so both
// speakers land on a single track. Inputs must share sample rate and
// channel count; the output reports the system stream's format.
type PCMMixer struct{}

// Mix starts reader goroutines for both inputs and returns the combined
// stream. The mixed stream ends once both inputs have ended.
func (PCMMixer) Mix(system, mic Stream) (Stream, error) {
	m := &mixedStream{
		out:    make(chan []byte, 8),
		tracks: append(append([]Track{}, system.Tracks()...), mic.Tracks()...),
	}
	if pcm, ok := system.(PCMStream); ok {
		m.sampleRate = pcm.SampleRate()
		m.channels = pcm.Channels()
	}

	a := pump(system)
	b := pump(mic)
	go m.run(a, b)
	return m, nil
}

type mixedStream struct {
	out        chan []byte
	pending    []byte
	tracks     []Track
	sampleRate int
	channels   int
}

func (m *mixedStream) Tracks() []Track     { return m.tracks }
func (m *mixedStream) ContentType() string { return "audio/l16" }
func (m *mixedStream) SampleRate() int     { return m.sampleRate }
func (m *mixedStream) Channels() int       { return m.channels }

func (m *mixedStream) Read(p []byte) (int, error) {
	for len(m.pending) == 0 {
		chunk, ok := <-m.out
		if !ok {
			return 0, io.EOF
		}
		m.pending = chunk
	}
	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

// pump drains a stream into a channel chunk by chunk.
func pump(s Stream) <-chan []byte {
	ch := make(chan []byte, 8)
	go func() {
		defer close(ch)
		buf := make([]byte, defaultChunkSize)
		for {
			n, err := s.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				ch <- chunk
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// run interleaves the two inputs: whenever both have buffered data the
// overlapping samples are summed with clipping; once one input ends the
// other passes through.
func (m *mixedStream) run(a, b <-chan []byte) {
	defer close(m.out)
	var bufA, bufB []byte

	for a != nil || b != nil {
		select {
		case chunk, ok := <-a:
			if !ok {
				a = nil
				continue
			}
			bufA = append(bufA, chunk...)
		case chunk, ok := <-b:
			if !ok {
				b = nil
				continue
			}
			bufB = append(bufB, chunk...)
		}

		for len(bufA) >= 2 && len(bufB) >= 2 {
			n := len(bufA)
			if len(bufB) < n {
				n = len(bufB)
			}
			n -= n % 2
			m.out <- mixSamples(bufA[:n], bufB[:n])
			bufA = bufA[n:]
			bufB = bufB[n:]
		}

		// An ended input with nothing buffered lets the live side pass
		// straight through instead of stalling until stop.
		if a == nil && len(bufA) == 0 && len(bufB) > 0 {
			m.out <- bufB
			bufB = nil
		}
		if b == nil && len(bufB) == 0 && len(bufA) > 0 {
			m.out <- bufA
			bufA = nil
		}
	}

	// One side ended; flush whatever the other produced.
	if len(bufA) > 0 {
		m.out <- bufA
	}
	if len(bufB) > 0 {
		m.out <- bufB
	}
}

// mixSamples sums two equal-length s16le sample runs with clipping.
func mixSamples(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := 0; i+1 < len(a); i += 2 {
		sa := int16(uint16(a[i]) | uint16(a[i+1])<<8)
		sb := int16(uint16(b[i]) | uint16(b[i+1])<<8)
		sum := int32(sa) + int32(sb)
		if sum > 32767 {
			sum = 32767
		} else if sum < -32768 {
			sum = -32768
		}
		out[i] = byte(uint16(sum))
		out[i+1] = byte(uint16(sum) >> 8)
	}
	return out
}
