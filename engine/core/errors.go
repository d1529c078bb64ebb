package core

import (
	"errors"
)

var (
	// ErrSwapchainOutOfDate is returned when the presentation surface no longer
	// matches the swapchain and the swapchain must be recreated before rendering
	// can continue. It is an expected transient condition, not a failure.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date, recreation required")
	// ErrSwapchainSuboptimal is returned when the swapchain can still present but
	// no longer matches the surface properties exactly.
	ErrSwapchainSuboptimal = errors.New("swapchain suboptimal for surface")
	ErrFormatChanged       = errors.New("swapchain image or depth format has changed")
	ErrUnknown             = errors.New("unknown")
)
