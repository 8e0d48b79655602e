// SPDX-License-Identifier: MIT
package transport

import (
	applog "melbar/internal/log"
)

// LoggingTransport implements the Transport interface by logging a summary of
// each frame at debug level. Frames that implement fmt.Stringer log their
// String form.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Logging frames at debug level")
	return &LoggingTransport{}
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	applog.Debugf("Transport: %v", data)
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("Transport: Logging transport closed")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
