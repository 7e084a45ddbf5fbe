package config

import (
	"os"
	"time"
)

// parseEnv overlays cfg with SECRETSYNC_* environment variables. This is
// the only way to pre-supply the passphrase non-interactively.
func parseEnv(cfg *Config) {
	overlayString(&cfg.Backend, os.Getenv("SECRETSYNC_BACKEND"))
	overlayString(&cfg.RegistryPath, os.Getenv("SECRETSYNC_REGISTRY"))
	overlayString(&cfg.Passphrase, os.Getenv("SECRETSYNC_PASSPHRASE"))

	overlayString(&cfg.KeyvalBaseURL, os.Getenv("SECRETSYNC_KEYVAL_URL"))
	overlayString(&cfg.KeyvalToken, os.Getenv("SECRETSYNC_KEYVAL_TOKEN"))

	overlayString(&cfg.NotesBaseURL, os.Getenv("SECRETSYNC_NOTES_URL"))
	overlayString(&cfg.NotesToken, os.Getenv("SECRETSYNC_NOTES_TOKEN"))
	overlayString(&cfg.NotesLabel, os.Getenv("SECRETSYNC_NOTES_LABEL"))

	overlayString(&cfg.S3Bucket, os.Getenv("SECRETSYNC_S3_BUCKET"))
	overlayString(&cfg.S3Region, os.Getenv("SECRETSYNC_S3_REGION"))
	overlayString(&cfg.S3Prefix, os.Getenv("SECRETSYNC_S3_PREFIX"))
	overlayString(&cfg.S3BaseEndpoint, os.Getenv("SECRETSYNC_S3_ENDPOINT"))
	overlayString(&cfg.S3AccessKey, os.Getenv("SECRETSYNC_S3_ACCESS_KEY"))
	overlayString(&cfg.S3SecretKey, os.Getenv("SECRETSYNC_S3_SECRET_KEY"))
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
