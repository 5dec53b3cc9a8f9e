package capture

// Downsample reduces src from the native rate to the target rate by
// nearest-neighbor index selection: output sample i takes source sample
// floor(i * native/target). This is a deliberate low-cost approximation
// rather than bandlimited resampling; the remote side only needs
// intelligible speech.
//
// The output holds exactly floor(len(src) * target / native) samples.
// When the rates match, src is copied unchanged.
func Downsample(src []float32, native, target int) []float32 {
	if native == target {
		out := make([]float32, len(src))
		copy(out, src)
		return out
	}
	n := len(src) * target / native
	out := make([]float32, n)
	for i := range out {
		out[i] = src[i*native/target]
	}
	return out
}

// EncodePCM16 converts normalized float32 samples to 16-bit signed
// little-endian PCM. Samples are clamped to [-1, 1]; negative values
// scale by 32768 and non-negative by 32767 so both extremes map onto
// the int16 range without overflow.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		var v int16
		if f < 0 {
			v = int16(f * 32768)
		} else {
			v = int16(f * 32767)
		}
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// DecodePCM16 converts 16-bit signed little-endian PCM to normalized
// float32 samples using the standard symmetric normalization int16/32768.
// A trailing odd byte is ignored.
func DecodePCM16(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(b[i*2]) | int16(b[i*2+1])<<8
		out[i] = float32(v) / 32768.0
	}
	return out
}
