package capture

import (
	"math"
	"testing"
)

func TestDownsample_Length(t *testing.T) {
	tests := []struct {
		in     int
		native int
		target int
		want   int
	}{
		{480, 48000, 16000, 160},
		{441, 44100, 16000, 160},
		{160, 16000, 16000, 160},
		{100, 22050, 16000, 72},
		{0, 48000, 16000, 0},
		{1, 48000, 16000, 0},
	}

	for _, tc := range tests {
		src := make([]float32, tc.in)
		got := Downsample(src, tc.native, tc.target)
		if len(got) != tc.want {
			t.Errorf("Downsample(len=%d, %d->%d) produced %d samples; want %d",
				tc.in, tc.native, tc.target, len(got), tc.want)
		}
	}
}

func TestDownsample_IndexSelection(t *testing.T) {
	// 3:1 ratio picks every third sample.
	src := make([]float32, 30)
	for i := range src {
		src[i] = float32(i)
	}

	got := Downsample(src, 48000, 16000)
	if len(got) != 10 {
		t.Fatalf("got %d samples; want 10", len(got))
	}
	for i, v := range got {
		if v != float32(i*3) {
			t.Errorf("out[%d] = %v; want %v", i, v, float32(i*3))
		}
	}
}

func TestDownsample_SameRateCopies(t *testing.T) {
	src := []float32{0.1, -0.2, 0.3}
	got := Downsample(src, 16000, 16000)
	if len(got) != len(src) {
		t.Fatalf("got %d samples; want %d", len(got), len(src))
	}
	src[0] = 0.9
	if got[0] != 0.1 {
		t.Error("Downsample must copy, not alias, the input")
	}
}

func TestEncodePCM16_Extremes(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{2, 32767},   // clamped
		{-2, -32768}, // clamped
		{0.5, 16383},
	}

	for _, tc := range tests {
		b := EncodePCM16([]float32{tc.in})
		got := int16(b[0]) | int16(b[1])<<8
		if got != tc.want {
			t.Errorf("EncodePCM16(%v) = %d; want %d", tc.in, got, tc.want)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	src := make([]float32, 1000)
	for i := range src {
		src[i] = float32(math.Sin(float64(i) * 0.071))
	}

	got := DecodePCM16(EncodePCM16(src))
	if len(got) != len(src) {
		t.Fatalf("round trip length %d; want %d", len(got), len(src))
	}
	const tol = 1.0 / 32768
	for i := range src {
		if diff := math.Abs(float64(got[i] - src[i])); diff > tol {
			t.Fatalf("sample %d: got %v, want %v (diff %v > %v)", i, got[i], src[i], diff, tol)
		}
	}
}

func TestDecodePCM16_OddTrailingByte(t *testing.T) {
	got := DecodePCM16([]byte{0, 0, 0x12})
	if len(got) != 1 {
		t.Errorf("got %d samples; want 1", len(got))
	}
}
