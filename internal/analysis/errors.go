// SPDX-License-Identifier: MIT
package analysis

import "errors"

var (
	ErrInvalidFFTSize        = errors.New("fft size must be a power of 2 and at least 2")
	ErrInvalidSampleRate     = errors.New("sample rate must be positive")
	ErrInvalidFrequencyRange = errors.New("frequency range must satisfy 0 < min < max <= sample rate / 2")
	ErrInvalidBandCount      = errors.New("band count must be at least 1")
	ErrInvalidKernelWidth    = errors.New("kernel width must be odd and at least 1")
	ErrUnknownPalette        = errors.New("unknown palette")
	ErrBufferLength          = errors.New("destination slice has the wrong length")
)
