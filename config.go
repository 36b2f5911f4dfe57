package meterdb

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	// EnvEndpoint names the variable holding the store's HTTP endpoint.
	EnvEndpoint = "METERDB_ENDPOINT"
	// EnvIngestEndpoint names the variable holding the ingestion service endpoint.
	EnvIngestEndpoint = "METERDB_INGEST_ENDPOINT"
	// EnvToken names the variable holding the ingestion bearer token.
	EnvToken = "METERDB_TOKEN"
)

// Config defines the configuration for the client.
type Config struct {
	// Endpoint is the URL of the store's HTTP API, e.g. "http://localhost:9000".
	Endpoint string `json:"endpoint"`
	// IngestEndpoint is the URL of the ingestion service, e.g. "http://localhost:8080".
	IngestEndpoint string `json:"ingest_endpoint"`
	// Token is sent as a bearer token to the ingestion service when non-empty.
	Token string `json:"token"`
}

// LoadConfig reads the configuration from the environment after loading the
// given env files. Missing env files are ignored; variables already set in the
// environment take precedence over the files.
func LoadConfig(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return &Config{
		Endpoint:       os.Getenv(EnvEndpoint),
		IngestEndpoint: os.Getenv(EnvIngestEndpoint),
		Token:          os.Getenv(EnvToken),
	}, nil
}
