package genai

import (
	"testing"

	"github.com/openai/openai-go"
)

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when no API key is configured")
	}
}

func TestNewClient_DefaultModel(t *testing.T) {
	c, err := NewClient(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != openai.ChatModelGPT4oMini {
		t.Errorf("expected default model, got %v", c.model)
	}
}

func TestNewClient_ModelOverride(t *testing.T) {
	c, err := NewClient(WithAPIKey("test-key"), WithModel("gpt-4o"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != openai.ChatModel("gpt-4o") {
		t.Errorf("expected overridden model, got %v", c.model)
	}
}
