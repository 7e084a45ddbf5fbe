package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/secretsync/internal/flagx"
)

// JsonConfig is the DTO for reading a JSON configuration file. Its values
// are copied into the runtime Config after unmarshalling.
type JsonConfig struct {
	Addr        string `json:"addr"`
	Token       string `json:"token"`
	DatabaseDSN string `json:"database_dsn"`
}

// parseJson overlays cfg with values from the JSON file named by the
// -c/-config flags. When no file is named, cfg is left untouched. A file
// that cannot be read or parsed is a startup error, so the function panics.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlayString(&cfg.Addr, c.Addr)
	overlayString(&cfg.Token, c.Token)
	overlayString(&cfg.DatabaseDSN, c.DatabaseDSN)
}
