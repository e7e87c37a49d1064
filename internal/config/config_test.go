package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"api_base_url": "http://api.example.com",
		"firebase_api_key": "file-key",
		"session_file": "/tmp/sess.json",
		"stub_address": "0.0.0.0:9000"
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	opts := &Options{APIBaseURL: "http://default", GoogleClientID: "kept"}
	if err := opts.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if opts.APIBaseURL != "http://api.example.com" {
		t.Errorf("APIBaseURL = %q", opts.APIBaseURL)
	}
	if opts.FirebaseAPIKey != "file-key" {
		t.Errorf("FirebaseAPIKey = %q", opts.FirebaseAPIKey)
	}
	if opts.SessionFile != "/tmp/sess.json" {
		t.Errorf("SessionFile = %q", opts.SessionFile)
	}
	if opts.StubAddress != "0.0.0.0:9000" {
		t.Errorf("StubAddress = %q", opts.StubAddress)
	}
	// Values absent from the file stay as they were.
	if opts.GoogleClientID != "kept" {
		t.Errorf("GoogleClientID = %q; want kept", opts.GoogleClientID)
	}
}

func TestLoadFileMissing(t *testing.T) {
	opts := &Options{}
	if err := opts.LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestLoadFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	opts := &Options{}
	if err := opts.LoadFile(path); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}
