// SPDX-License-Identifier: MIT
package audio

import "errors"

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrRecordingStopped = errors.New("recording stopped after repeated write failures")
	ErrInvalidDevice    = errors.New("invalid device ID")
	ErrNoInputChannels  = errors.New("device has no input channels")
	ErrInvalidWAV       = errors.New("not a valid WAV file")
	ErrUnsupportedWAV   = errors.New("unsupported WAV format")
)
