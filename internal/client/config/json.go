package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/secretsync/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Zero values
// mean "not set" and leave the corresponding Config field alone, so a
// partial file only overrides what it names.
//
// The passphrase is deliberately absent: it must never live in a config
// file on disk.
type JsonConfig struct {
	Backend      string `json:"backend"`
	RegistryPath string `json:"registry_path"`

	KeyvalBaseURL string `json:"keyval_base_url"`
	KeyvalToken   string `json:"keyval_token"`

	NotesBaseURL string `json:"notes_base_url"`
	NotesToken   string `json:"notes_token"`
	NotesLabel   string `json:"notes_label"`

	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3Prefix       string `json:"s3_prefix"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// parseJson overlays cfg with values from the JSON file named by -c or
// -config. No file flag means no JSON layer.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlayString(&cfg.Backend, jc.Backend)
	overlayString(&cfg.RegistryPath, jc.RegistryPath)
	overlayString(&cfg.KeyvalBaseURL, jc.KeyvalBaseURL)
	overlayString(&cfg.KeyvalToken, jc.KeyvalToken)
	overlayString(&cfg.NotesBaseURL, jc.NotesBaseURL)
	overlayString(&cfg.NotesToken, jc.NotesToken)
	overlayString(&cfg.NotesLabel, jc.NotesLabel)
	overlayString(&cfg.S3Bucket, jc.S3Bucket)
	overlayString(&cfg.S3Region, jc.S3Region)
	overlayString(&cfg.S3Prefix, jc.S3Prefix)
	overlayString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	overlayString(&cfg.S3AccessKey, jc.S3AccessKey)
	overlayString(&cfg.S3SecretKey, jc.S3SecretKey)

	if jc.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = secondsToDuration(jc.RequestTimeoutSeconds)
	}
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
