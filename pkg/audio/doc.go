// Package audio is an umbrella for the audio sub-packages:
//
//   - pcm: PCM format math (sample rates, durations, byte sizes)
//   - capture: microphone pipeline producing 16 kHz PCM16 chunks
//   - playback: gapless scheduler for 24 kHz agent speech
//   - resampler: io.Reader sample-rate conversion
//   - portaudio: CGO device drivers for capture and playback
package audio
