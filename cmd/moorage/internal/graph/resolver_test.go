// Copyright (C) 2026 Moorage AI (oss@moorage.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/MoorageAI/MoorageLocal/cmd/moorage/internal/registry"
)

// testCatalog builds a catalog exercising shared services and pack
// dependency chains:
//
//	pack rag      -> {vectordb, embedder}
//	pack chat     -> {model-runtime, chat-ui}, depends on pack rag
//	pack minimal  -> {model-runtime}
//	ext  audit    -> {audit-sink}
//	embedder depends_on vectordb; chat-ui depends_on model-runtime
func testCatalog(t *testing.T) *registry.Catalog {
	t.Helper()
	cat, err := registry.NewCatalog(registry.CatalogDocument{
		Services: []registry.ServiceDefinition{
			{Name: "vectordb", Image: "qdrant/qdrant:v1.9.2"},
			{Name: "embedder", Image: "moorage/embedder:0.3.1", DependsOn: []string{"vectordb"}},
			{Name: "model-runtime", Image: "ollama/ollama:0.6.1"},
			{Name: "chat-ui", Image: "moorage/chat-ui:0.3.1", DependsOn: []string{"model-runtime"}},
			{Name: "audit-sink", Image: "moorage/audit-sink:0.1.0"},
		},
		Packs: []registry.PackDefinition{
			{Name: "rag", Services: []string{"vectordb", "embedder"}},
			{Name: "chat", Services: []string{"model-runtime", "chat-ui"}, DependsOn: []string{"rag"}},
			{Name: "minimal", Services: []string{"model-runtime"}},
		},
		Extensions: []registry.ExtensionDefinition{
			{Name: "audit", Services: []string{"audit-sink"}},
		},
	})
	if err != nil {
		t.Fatalf("building test catalog: %v", err)
	}
	return cat
}

func TestResolveEmptyIntent(t *testing.T) {
	res, err := NewResolver(testCatalog(t)).Resolve(nil, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Services) != 0 || len(res.Order) != 0 {
		t.Errorf("expected empty resolution, got %+v", res)
	}
}

func TestResolvePackClosure(t *testing.T) {
	// Enabling chat pulls in rag through the pack dependency edge.
	res, err := NewResolver(testCatalog(t)).Resolve([]string{"chat"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	wantPacks := []string{"chat", "rag"}
	if !reflect.DeepEqual(res.Packs, wantPacks) {
		t.Errorf("Packs = %v, want %v", res.Packs, wantPacks)
	}
	wantServices := []string{"chat-ui", "embedder", "model-runtime", "vectordb"}
	if !reflect.DeepEqual(res.Services, wantServices) {
		t.Errorf("Services = %v, want %v", res.Services, wantServices)
	}
}

func TestResolveSharedServiceAppearsOnce(t *testing.T) {
	// minimal and chat both require model-runtime.
	res, err := NewResolver(testCatalog(t)).Resolve([]string{"chat", "minimal"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	count := 0
	for _, svc := range res.Services {
		if svc == "model-runtime" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("model-runtime appears %d times, want 1", count)
	}
}

func TestResolveExtension(t *testing.T) {
	res, err := NewResolver(testCatalog(t)).Resolve([]string{"minimal"}, []string{"audit"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"audit-sink", "model-runtime"}
	if !reflect.DeepEqual(res.Services, want) {
		t.Errorf("Services = %v, want %v", res.Services, want)
	}
}

func TestResolveOrderRespectsDependencies(t *testing.T) {
	res, err := NewResolver(testCatalog(t)).Resolve([]string{"chat"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	pos := make(map[string]int, len(res.Order))
	for i, svc := range res.Order {
		pos[svc] = i
	}
	if pos["vectordb"] > pos["embedder"] {
		t.Errorf("vectordb must precede embedder in %v", res.Order)
	}
	if pos["model-runtime"] > pos["chat-ui"] {
		t.Errorf("model-runtime must precede chat-ui in %v", res.Order)
	}

	if res.Ranks["vectordb"] != 0 || res.Ranks["embedder"] != 1 {
		t.Errorf("ranks = %v, want vectordb=0 embedder=1", res.Ranks)
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(testCatalog(t))
	first, err := r.Resolve([]string{"chat", "minimal"}, []string{"audit"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := r.Resolve([]string{"minimal", "chat"}, []string{"audit"})
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("resolution differs between runs:\n%+v\n%+v", first, again)
		}
	}
}

func TestResolveUnknownPack(t *testing.T) {
	_, err := NewResolver(testCatalog(t)).Resolve([]string{"ghost"}, nil)
	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want *GraphError", err)
	}
	if ge.Kind != UnknownReference || ge.Name != "ghost" {
		t.Errorf("GraphError = %+v, want UnknownReference ghost", ge)
	}
}

func TestResolveUnknownExtension(t *testing.T) {
	_, err := NewResolver(testCatalog(t)).Resolve(nil, []string{"ghost"})
	var ge *GraphError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want *GraphError", err)
	}
	if ge.Kind != UnknownReference {
		t.Errorf("Kind = %v, want UnknownReference", ge.Kind)
	}
}
