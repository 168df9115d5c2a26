package rialto

import (
	"errors"
	"fmt"
)

var ErrLayoutFrozen = errors.New("dimensions cannot be registered once rows exist")
var ErrMissingXYZ = errors.New("layout is missing required X/Y/Z dimensions")
var ErrPointOutOfWorld = errors.New("point lies outside the world extent")
var ErrConversionRange = errors.New("value out of range for target storage type")
var ErrNonIdentityView = errors.New("clear called on a non-identity view")
var ErrIO = errors.New("io error")
var ErrInvalidQuadrant = errors.New("invalid quadrant")
var ErrUnknownDimension = errors.New("unknown dimension")
var ErrMaxLevelOutOfRange = errors.New("maxLevel out of range")
var ErrEmptyPatch = errors.New("empty point patch")

// ConversionRangeError carries the detail needed to render a failed
// cross-type numeric conversion: the dimension, the offending value, and
// the storage type it would not fit into.
type ConversionRangeError struct {
	Dimension string
	Value     float64
	Target    Type
}

func (e *ConversionRangeError) Error() string {
	return fmt.Sprintf("dimension %q: value %v does not fit in %s", e.Dimension, e.Value, e.Target)
}

func (e *ConversionRangeError) Unwrap() error {
	return ErrConversionRange
}

// PointOutOfWorldError reports the offending coordinate.
type PointOutOfWorldError struct {
	Lon, Lat float64
}

func (e *PointOutOfWorldError) Error() string {
	return fmt.Sprintf("point (%v, %v) lies outside [-180,180]x[-90,90]", e.Lon, e.Lat)
}

func (e *PointOutOfWorldError) Unwrap() error {
	return ErrPointOutOfWorld
}
