package sources_test

import (
	"context"
	"testing"

	"daybrief/internal/sources"
)

type fakeConnector struct {
	name string
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Fetch(context.Context, sources.FetchRequest) ([]sources.RawItem, error) {
	return nil, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := sources.NewRegistry()
	if err := registry.Register(&fakeConnector{name: "gmail"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if registry.Get("gmail") == nil {
		t.Fatal("registered connector not found")
	}
	if registry.Get("calendar") != nil {
		t.Fatal("unregistered connector should be nil")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := sources.NewRegistry()
	if err := registry.Register(&fakeConnector{name: "gmail"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := registry.Register(&fakeConnector{name: "gmail"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistryRejectsInvalidConnectors(t *testing.T) {
	registry := sources.NewRegistry()
	if err := registry.Register(nil); err == nil {
		t.Fatal("expected error for nil connector")
	}
	if err := registry.Register(&fakeConnector{}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := sources.NewRegistry()
	for _, name := range []string{"tasks", "gmail", "calendar"} {
		if err := registry.Register(&fakeConnector{name: name}); err != nil {
			t.Fatalf("Register %s failed: %v", name, err)
		}
	}
	names := registry.Names()
	want := []string{"calendar", "gmail", "tasks"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}
