// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import "errors"

var (
	// ErrDuplicateName is returned when two entries of the same kind
	// share a name.
	ErrDuplicateName = errors.New("duplicate name in registry")

	// ErrUnknownReference is returned when a depends_on or pack/extension
	// service list references a name that does not exist.
	ErrUnknownReference = errors.New("unknown reference in registry")

	// ErrDependencyCycle is returned when the service or pack dependency
	// graph contains a cycle.
	ErrDependencyCycle = errors.New("dependency cycle in registry")

	// ErrInvalidDefinition is returned when a definition fails field-level
	// validation (missing image, out-of-range port, malformed name).
	ErrInvalidDefinition = errors.New("invalid definition in registry")
)
