// Package pcm defines the fixed PCM wire formats of a call and the
// byte/sample/duration arithmetic around them.
//
// Two of the formats are wire contracts, not negotiated values: microphone
// audio is sent upstream as L16Mono16K and agent speech arrives as
// L16Mono24K. L16Mono48K exists for local output devices that cannot open
// at 24 kHz.
package pcm
