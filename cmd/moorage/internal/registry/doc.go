// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
Package registry provides the typed catalog of all known stack services.

# Overview

The registry is pure data: service definitions (image, ports, volumes,
environment, dependencies), feature packs mapping a human-facing name to
the services it requires, and extensions doing the same for add-on
compose layers. Nothing in this package talks to the container runtime.

A Catalog is loaded once per reconciliation run from a YAML document and
validated up front:

  - service, pack, and extension names are unique within their kind
  - every depends_on entry references an existing name
  - the service dependency graph and the pack dependency graph are acyclic

Downstream components (graph resolution, rendering, planning) may
therefore assume a well-formed catalog and never re-validate.

# Example

	cat, err := registry.LoadCatalog(filepath.Join(stackDir, "registry.yaml"))
	if err != nil {
	    return fmt.Errorf("loading service registry: %w", err)
	}
	svc, ok := cat.Service("vectordb")
*/
package registry
