// SPDX-License-Identifier: MIT

package tzfinder

import "errors"

var (
	// ErrInvalidInput reports GeoJSON that cannot be parsed or uses an
	// unsupported geometry type.
	ErrInvalidInput = errors.New("tzfinder: invalid GeoJSON input")

	// ErrOutOfRange reports a coordinate outside [-180,180]×[-90,90],
	// a NaN, or a time zone index outside 1..N.
	ErrOutOfRange = errors.New("tzfinder: out of range")

	// ErrUnknownID reports a time zone identifier that is not in the
	// tree's dictionary.
	ErrUnknownID = errors.New("tzfinder: unknown time zone id")

	// ErrAlreadyLoaded reports a configuration change after the lookup
	// data has been materialized.
	ErrAlreadyLoaded = errors.New("tzfinder: data already loaded")

	// ErrNotReadable reports a missing data file or an unreadable stream.
	ErrNotReadable = errors.New("tzfinder: data not readable")

	// ErrMalformed reports a corrupt serialized tree.
	ErrMalformed = errors.New("tzfinder: malformed tree data")
)
