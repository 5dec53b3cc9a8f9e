// Package portaudio binds the PortAudio C library and adapts it to the
// capture and playback interfaces used by the call client.
//
// Building requires portaudio via pkg-config (brew install portaudio on
// macOS, libportaudio-dev on Debian).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// void* wrappers avoid CGO type issues with PaStream.
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library. Safe to call multiple
// times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo describes an audio device visible to the host.
type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// Devices lists the available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultInput := int(C.Pa_GetDefaultInputDevice())
	defaultOutput := int(C.Pa_GetDefaultOutputDevice())

	devices := make([]DeviceInfo, count)
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil {
			continue
		}
		devices[i] = DeviceInfo{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxInputChannels:  int(info.maxInputChannels),
			MaxOutputChannels: int(info.maxOutputChannels),
			DefaultSampleRate: float64(info.defaultSampleRate),
			IsDefaultInput:    i == defaultInput,
			IsDefaultOutput:   i == defaultOutput,
		}
	}
	return devices, nil
}

// DefaultInputDevice returns the default input device.
func DefaultInputDevice() (*DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	idx := C.Pa_GetDefaultInputDevice()
	if idx == C.paNoDevice {
		return nil, errors.New("portaudio: no default input device")
	}
	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return nil, errors.New("portaudio: failed to get device info")
	}
	return &DeviceInfo{
		Index:             int(idx),
		Name:              C.GoString(info.name),
		MaxInputChannels:  int(info.maxInputChannels),
		DefaultSampleRate: float64(info.defaultSampleRate),
		IsDefaultInput:    true,
	}, nil
}

// DefaultOutputDevice returns the default output device.
func DefaultOutputDevice() (*DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	idx := C.Pa_GetDefaultOutputDevice()
	if idx == C.paNoDevice {
		return nil, errors.New("portaudio: no default output device")
	}
	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return nil, errors.New("portaudio: failed to get device info")
	}
	return &DeviceInfo{
		Index:             int(idx),
		Name:              C.GoString(info.name),
		MaxOutputChannels: int(info.maxOutputChannels),
		DefaultSampleRate: float64(info.defaultSampleRate),
		IsDefaultOutput:   true,
	}, nil
}

// stream wraps a mono int16 PortAudio stream.
type stream struct {
	handle     unsafe.Pointer
	buffer     unsafe.Pointer
	bufferSize int
	mu         sync.Mutex
	closed     bool
}

// openStream opens a mono int16 stream on the default device of the
// requested direction.
func openStream(input bool, sampleRate float64, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	var inputParams, outputParams *C.PaStreamParameters
	if input {
		device := C.Pa_GetDefaultInputDevice()
		if device == C.paNoDevice {
			return nil, errors.New("portaudio: no default input device")
		}
		info := C.Pa_GetDeviceInfo(device)
		inputParams = &C.PaStreamParameters{
			device:                    device,
			channelCount:              1,
			sampleFormat:              C.paInt16,
			suggestedLatency:          info.defaultLowInputLatency,
			hostApiSpecificStreamInfo: nil,
		}
	} else {
		device := C.Pa_GetDefaultOutputDevice()
		if device == C.paNoDevice {
			return nil, errors.New("portaudio: no default output device")
		}
		info := C.Pa_GetDeviceInfo(device)
		outputParams = &C.PaStreamParameters{
			device:                    device,
			channelCount:              1,
			sampleFormat:              C.paInt16,
			suggestedLatency:          info.defaultLowOutputLatency,
			hostApiSpecificStreamInfo: nil,
		}
	}

	var handle unsafe.Pointer
	err := paError(C.pa_open_stream(
		&handle,
		inputParams,
		outputParams,
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.paClipOff,
	))
	if err != nil {
		return nil, err
	}

	bufferSize := framesPerBuffer * 2 // mono int16
	return &stream{
		handle:     handle,
		buffer:     C.malloc(C.size_t(bufferSize)),
		bufferSize: bufferSize,
	}, nil
}

func (s *stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("portaudio: stream closed")
	}
	return paError(C.pa_start_stream(s.handle))
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	C.pa_stop_stream(s.handle)
	err := paError(C.pa_close_stream(s.handle))
	C.free(s.buffer)
	return err
}

// Read reads framesPerBuffer samples from an input stream.
func (s *stream) Read(frames int) ([]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("portaudio: stream closed")
	}
	if frames*2 > s.bufferSize {
		frames = s.bufferSize / 2
	}

	if err := paError(C.pa_read_stream(s.handle, s.buffer, C.ulong(frames))); err != nil {
		return nil, err
	}
	samples := make([]int16, frames)
	C.memcpy(unsafe.Pointer(&samples[0]), s.buffer, C.size_t(frames*2))
	return samples, nil
}

// Write writes samples to an output stream, blocking until the host
// has consumed them.
func (s *stream) Write(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("portaudio: stream closed")
	}
	if len(samples) == 0 {
		return nil
	}
	if len(samples)*2 > s.bufferSize {
		samples = samples[:s.bufferSize/2]
	}

	C.memcpy(s.buffer, unsafe.Pointer(&samples[0]), C.size_t(len(samples)*2))
	return paError(C.pa_write_stream(s.handle, s.buffer, C.ulong(len(samples))))
}
