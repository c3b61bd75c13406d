package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.ServerEndpointAddr, "http://127.0.0.1:8080")
	assert.Equal(t, c.DatabaseFile, "nutritrack.db")
	assert.Equal(t, c.RequestTimeout, 10*time.Second)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, c.ServerEndpointAddr, "http://127.0.0.1:8080")
	assert.Equal(t, c.DatabaseFile, "nutritrack.db")
	assert.Equal(t, c.RequestTimeout, 10*time.Second)
}
