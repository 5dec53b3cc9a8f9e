package resampler

import "io"

// sampleReader wraps an io.Reader so every Read returns a multiple of
// sampleSize bytes, buffering any unaligned remainder for the next call.
type sampleReader struct {
	r          io.Reader
	sampleSize int
	buffer     []byte
	buffered   int
}

func newSampleReader(r io.Reader, sampleSize int) *sampleReader {
	return &sampleReader{
		r:          r,
		sampleSize: sampleSize,
		buffer:     make([]byte, sampleSize-1),
	}
}

// Read reads into p, returning 0 or a multiple of sampleSize bytes.
// Returns io.ErrShortBuffer if len(p) < sampleSize. EOF with a dangling
// partial sample becomes io.ErrUnexpectedEOF.
func (sr *sampleReader) Read(p []byte) (n int, err error) {
	if len(p) < sr.sampleSize {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/sr.sampleSize*sr.sampleSize]

	if sr.buffered > 0 {
		n = copy(p, sr.buffer[:sr.buffered])
		sr.buffered = 0
	}

	rn, err := sr.r.Read(p[n:])
	n += rn
	if err != nil {
		if n%sr.sampleSize != 0 && err == io.EOF {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if mod := n % sr.sampleSize; mod != 0 {
		n -= mod
		copy(sr.buffer[:mod], p[n:n+mod])
		sr.buffered = mod
	}
	return n, nil
}
