package main

import (
	"context"
	"testing"

	"github.com/okriek/inkwell/config"
	"github.com/okriek/inkwell/llm"
)

func TestNewModelClientFallsBackToMock(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "mock"

	client, err := newModelClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newModelClient failed: %v", err)
	}
	if _, ok := client.(*llm.MockClient); !ok {
		t.Errorf("expected the mock client for an unknown provider, got %T", client)
	}
}
