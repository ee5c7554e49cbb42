package vista

import (
	"errors"
	"fmt"
)

var (
	// ErrMarkerNotFound signals a lookup for an unknown marker id.
	ErrMarkerNotFound = errors.New("vista: marker not found")
	// ErrMarkerExists signals an attempt to add a marker with a taken id.
	ErrMarkerExists = errors.New("vista: marker already exists")
	// ErrInvalidConfig signals an unusable marker or viewer configuration.
	ErrInvalidConfig = errors.New("vista: invalid configuration")
	// ErrLoadInProgress signals that a panorama load is already running.
	ErrLoadInProgress = errors.New("vista: panorama load already in progress")
	// ErrNoPanorama signals an operation that needs panorama metadata before
	// any panorama has been set.
	ErrNoPanorama = errors.New("vista: no panorama set")
	// ErrCubemapTexture signals texture coordinates requested for a cubemap,
	// which has no single texture coordinate space.
	ErrCubemapTexture = errors.New("vista: cubemap panorama has no texture coordinates")
	// ErrCapability signals an optional feature the host does not provide.
	ErrCapability = errors.New("vista: capability not available")
)

// ConfigError wraps ErrInvalidConfig with the offending field and the reason
// it was rejected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig.Error(), e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CapabilityError wraps ErrCapability with the name of the missing
// capability.
type CapabilityError struct {
	Capability string
}

func (e *CapabilityError) Error() string {
	return ErrCapability.Error() + ": " + e.Capability
}

func (e *CapabilityError) Unwrap() error { return ErrCapability }
