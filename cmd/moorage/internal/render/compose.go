// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package render

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// ManagedLabel marks containers owned by this engine. Observation
	// filters on it so unmanaged containers are invisible to the diff.
	ManagedLabel = "ai.moorage.managed"

	// ConfigHashLabel carries the rendered-config hash a container was
	// created from. Stamped at apply time, read back at observe time.
	ConfigHashLabel = "ai.moorage.config-hash"
)

// composeEntry is a canonical service plus its provenance labels.
//
// Labels sit outside the hashed bytes: the hash describes the
// definition, and the label records which definition a container came
// from. Folding the label into the hash would make the hash depend on
// itself.
type composeEntry struct {
	canonicalService `yaml:",inline"`
	Labels           []string `yaml:"labels"`
}

// composeFile is the on-disk compose document shape.
type composeFile struct {
	Name     string                  `yaml:"name"`
	Services map[string]composeEntry `yaml:"services"`
}

// ComposeDocument assembles the full runtime configuration document.
//
// # Description
//
// Re-derives each service's canonical form from its rendered body and
// attaches the managed and config-hash labels. The document hash is
// computed over the document bytes themselves, so any change to any
// service changes it.
//
// # Inputs
//
//   - projectName: Compose project name (scopes container naming)
//   - rendered: Canonical services from RenderAll
//
// # Outputs
//
//   - []byte: The compose document
//   - string: Truncated SHA-256 of the document bytes
//   - error: Only on internal encoding failures
func ComposeDocument(projectName string, rendered []RenderedService) ([]byte, string, error) {
	doc := composeFile{
		Name:     projectName,
		Services: make(map[string]composeEntry, len(rendered)),
	}

	for _, rs := range rendered {
		var canon canonicalService
		if err := yaml.Unmarshal(rs.Body, &canon); err != nil {
			return nil, "", fmt.Errorf("decoding canonical body for %s: %w", rs.Name, err)
		}
		doc.Services[rs.Name] = composeEntry{
			canonicalService: canon,
			Labels: []string{
				ManagedLabel + "=true",
				ConfigHashLabel + "=" + rs.Hash,
			},
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, "", fmt.Errorf("encoding compose document: %w", err)
	}
	return out, HashBytes(out), nil
}

// HashManifest is the JSON sidecar recording every service hash for a
// rendered document, for audit trails and out-of-band drift checks.
type HashManifest struct {
	// DocumentHash is the hash of the full compose document.
	DocumentHash string `json:"document_hash"`

	// Services maps service name to rendered-config hash.
	Services map[string]string `json:"services"`
}

// NewHashManifest builds the sidecar manifest for a rendered set.
func NewHashManifest(documentHash string, rendered []RenderedService) HashManifest {
	m := HashManifest{
		DocumentHash: documentHash,
		Services:     make(map[string]string, len(rendered)),
	}
	for _, rs := range rendered {
		m.Services[rs.Name] = rs.Hash
	}
	return m
}

// MarshalIndent returns the manifest as indented JSON. Keys marshal in
// sorted order, so the sidecar bytes are deterministic too.
func (m HashManifest) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding hash manifest: %w", err)
	}
	return data, nil
}
