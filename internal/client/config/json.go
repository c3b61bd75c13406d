package config

import (
	"encoding/json"
	"os"

	"github.com/mkrasovska/nutritrack/internal/flagx"
	"github.com/mkrasovska/nutritrack/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "10s" and integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DatabaseFile       string         `json:"database_file"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config command-line flags into the provided Config. If no flag is set,
// no JSON file is loaded.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.ServerEndpointAddr = c.ServerEndpointAddr
	config.DatabaseFile = c.DatabaseFile
	config.RequestTimeout = c.RequestTimeout.Duration
}
