package gemini

import (
	"strings"
	"testing"
)

func TestDecodeModelJSONPlain(t *testing.T) {
	var out map[string]string
	if err := DecodeModelJSON(`{"word":"cat"}`, &out); err != nil {
		t.Fatalf("DecodeModelJSON returned error: %v", err)
	}
	if out["word"] != "cat" {
		t.Fatalf("expected word cat, got %q", out["word"])
	}
}

func TestDecodeModelJSONCodeFence(t *testing.T) {
	var out map[string]string
	raw := "```json\n{\"word\":\"dog\"}\n```"
	if err := DecodeModelJSON(raw, &out); err != nil {
		t.Fatalf("DecodeModelJSON returned error: %v", err)
	}
	if out["word"] != "dog" {
		t.Fatalf("expected word dog, got %q", out["word"])
	}
}

func TestDecodeModelJSONLeadingProse(t *testing.T) {
	var out map[string]string
	raw := "Here is the JSON you asked for:\n{\"word\":\"owl\"}"
	if err := DecodeModelJSON(raw, &out); err != nil {
		t.Fatalf("DecodeModelJSON returned error: %v", err)
	}
	if out["word"] != "owl" {
		t.Fatalf("expected word owl, got %q", out["word"])
	}
}

func TestDecodeModelJSONEmpty(t *testing.T) {
	var out map[string]string
	if err := DecodeModelJSON("   ", &out); err == nil {
		t.Fatal("expected empty response error")
	}
}

func TestDecodeModelJSONMalformedIncludesSnippet(t *testing.T) {
	var out map[string]string
	err := DecodeModelJSON("{not json at all", &out)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "payload=") {
		t.Fatalf("expected error to include payload snippet, got %v", err)
	}
}
