// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// APIBaseURL is the base URL of the remote inventory API.
	APIBaseURL string `json:"api_base_url"`

	// FirebaseAPIKey is the identity provider's web API key.
	FirebaseAPIKey string `json:"firebase_api_key"`

	// GoogleClientID is the OAuth client id for browser sign-in.
	GoogleClientID string `json:"google_client_id"`

	// GoogleClientSecret is the OAuth client secret for browser sign-in.
	GoogleClientSecret string `json:"google_client_secret"`

	// SessionFile is where the provider session is persisted between runs.
	SessionFile string `json:"session_file"`

	// StubAddress is the listen address (ip:port) of the stub server.
	StubAddress string `json:"stub_address"`

	// Config is the path to the config file.
	Config string `json:"-"`
}

// LoadFile merges values from the JSON config file at path.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, o)
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.APIBaseURL, "api", "http://127.0.0.1:8001", "inventory API base URL")
	flag.StringVar(&options.FirebaseAPIKey, "key", "", "identity provider API key")
	flag.StringVar(&options.SessionFile, "session", "session.json", "path to the persisted session file")
	flag.StringVar(&options.StubAddress, "stub-addr", "127.0.0.1:8001", "listen address for the stub server")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			if err := options.LoadFile(options.Config); err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
		}
	}

	if apiBaseURL := os.Getenv("API_BASE_URL"); apiBaseURL != "" {
		options.APIBaseURL = apiBaseURL
	}
	if apiKey := os.Getenv("FIREBASE_API_KEY"); apiKey != "" {
		options.FirebaseAPIKey = apiKey
	}
	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		options.GoogleClientID = clientID
	}
	if clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET"); clientSecret != "" {
		options.GoogleClientSecret = clientSecret
	}
	if sessionFile := os.Getenv("SESSION_FILE"); sessionFile != "" {
		options.SessionFile = sessionFile
	}
	if stubAddress := os.Getenv("STUB_ADDRESS"); stubAddress != "" {
		options.StubAddress = stubAddress
	}

	return options
}
