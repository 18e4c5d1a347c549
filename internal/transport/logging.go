// SPDX-License-Identifier: MIT
package transport

import (
	applog "barviz/internal/log"
	"barviz/internal/viz"
)

// LoggingTransport implements Transport by logging frame summaries at debug
// level. Useful for verifying the pipeline without any consumer attached.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received frame. Never fails.
func (lt *LoggingTransport) Send(data any) error {
	if frame, ok := data.(viz.Frame); ok {
		applog.Debugf("LoggingTransport: frame %d (%d bars)", frame.Sequence, len(frame.Heights))
	} else {
		applog.Debugf("LoggingTransport: %T %+v", data, data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
