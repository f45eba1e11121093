package tui

import "time"

const (
	// Input Dimensions
	FieldWidth = 36

	// Layout Offsets and Padding
	DefaultPaddingX = 1
	DefaultPaddingY = 0
	ScreenPaddingX  = 2
	ScreenPaddingY  = 1

	// Placeholder shown until the service reports a value
	NoValuePlaceholder = "-"

	// How long a finished task stays in the status line
	StatusLinger = 3 * time.Second

	// Channel Buffers
	TaskEventBuffer = 16
)
