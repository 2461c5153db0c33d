// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package registry

import "fmt"

// =============================================================================
// Service Model
// =============================================================================

// PortMapping represents a host-to-container port binding.
type PortMapping struct {
	// Host is the port on the host.
	Host int `yaml:"host" validate:"required,min=1,max=65535"`

	// Container is the port inside the container.
	Container int `yaml:"container" validate:"required,min=1,max=65535"`

	// Protocol is "tcp" or "udp". Empty means tcp.
	Protocol string `yaml:"protocol,omitempty" validate:"omitempty,oneof=tcp udp"`
}

// String renders the mapping in compose short syntax ("8080:8080/tcp").
func (p PortMapping) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	return fmt.Sprintf("%d:%d/%s", p.Host, p.Container, proto)
}

// VolumeMapping represents a host-path or named-volume mount.
type VolumeMapping struct {
	// Source is the host path or named volume.
	Source string `yaml:"source" validate:"required"`

	// Target is the mount path inside the container.
	Target string `yaml:"target" validate:"required"`

	// ReadOnly mounts the volume read-only.
	ReadOnly bool `yaml:"read_only,omitempty"`
}

// String renders the mapping in compose short syntax ("src:dst[:ro]").
func (v VolumeMapping) String() string {
	if v.ReadOnly {
		return fmt.Sprintf("%s:%s:ro", v.Source, v.Target)
	}
	return fmt.Sprintf("%s:%s", v.Source, v.Target)
}

// ServiceDefinition is an immutable catalog entry for one stack service.
//
// # Description
//
// Describes everything needed to render the service into the runtime
// configuration: image, command, ports, volumes, environment, dependency
// edges, and profile tags. Name is the unique key across the registry.
//
// # Invariants
//
//   - Name is globally unique across the registry
//   - Every DependsOn entry references an existing service
//   - The dependency graph among services is acyclic
//
// Catalog construction enforces all three.
type ServiceDefinition struct {
	// Name is the unique service key (also the compose service name).
	Name string `yaml:"name" validate:"required,hostname_rfc1123"`

	// Image is the container image reference.
	Image string `yaml:"image" validate:"required"`

	// Command overrides the image entrypoint arguments.
	Command []string `yaml:"command,omitempty"`

	// Ports are host-to-container port bindings.
	Ports []PortMapping `yaml:"ports,omitempty" validate:"dive"`

	// Volumes are mounts into the container.
	Volumes []VolumeMapping `yaml:"volumes,omitempty" validate:"dive"`

	// Env is the service environment.
	Env map[string]string `yaml:"env,omitempty"`

	// DependsOn names services that must exist/start before this one.
	DependsOn []string `yaml:"depends_on,omitempty"`

	// Profiles are free-form tags ("gpu", "observability") used by
	// operator tooling; they do not affect resolution.
	Profiles []string `yaml:"profiles,omitempty"`
}

// =============================================================================
// Feature Model
// =============================================================================

// PackDefinition maps a feature pack to the services it requires.
//
// Packs may depend on other packs; enabling a pack pulls in its own
// services plus the transitive closure of its pack dependencies.
// The pack dependency graph must be acyclic.
type PackDefinition struct {
	// Name is the unique pack key.
	Name string `yaml:"name" validate:"required,hostname_rfc1123"`

	// Description is shown by operator-facing listing commands.
	Description string `yaml:"description,omitempty"`

	// Services names the services this pack requires.
	Services []string `yaml:"services" validate:"required,min=1"`

	// DependsOn names other packs this pack requires.
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// ExtensionDefinition maps an add-on extension to the services it requires.
//
// Extensions are flat: they require services but never other extensions.
type ExtensionDefinition struct {
	// Name is the unique extension key.
	Name string `yaml:"name" validate:"required,hostname_rfc1123"`

	// Description is shown by operator-facing listing commands.
	Description string `yaml:"description,omitempty"`

	// Services names the services this extension requires.
	Services []string `yaml:"services" validate:"required,min=1"`
}

// =============================================================================
// Document Model
// =============================================================================

// CatalogDocument is the on-disk YAML shape of the service registry.
type CatalogDocument struct {
	Services   []ServiceDefinition   `yaml:"services"`
	Packs      []PackDefinition      `yaml:"packs"`
	Extensions []ExtensionDefinition `yaml:"extensions"`
}
