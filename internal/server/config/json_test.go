package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonConfig_Unmarshal(t *testing.T) {
	payload := `{
		"endpoint_addr_http": ":9090",
		"database_dsn": "postgres://u:p@db:5432/x",
		"redis_addr": "redis:6379",
		"secret_key": "sk",
		"access_token_validity_duration": "30m",
		"refresh_token_validity_duration": "48h",
		"s3_root_user": "root",
		"s3_root_password": "pw",
		"s3_bucket": "files",
		"s3_region": "eu-west-1",
		"s3_base_endpoint": "http://minio:9000/"
	}`

	var c JsonConfig
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	assert.Equal(t, ":9090", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://u:p@db:5432/x", c.DatabaseDSN)
	assert.Equal(t, "redis:6379", c.RedisAddr)
	assert.Equal(t, "sk", c.SecretKey)
	assert.Equal(t, 30*time.Minute, c.AccessTokenValidityDuration.Duration)
	assert.Equal(t, 48*time.Hour, c.RefreshTokenValidityDuration.Duration)
	assert.Equal(t, "root", c.S3RootUser)
	assert.Equal(t, "files", c.S3Bucket)
}

func TestJsonConfig_DurationAsNanoseconds(t *testing.T) {
	var c JsonConfig
	require.NoError(t, json.Unmarshal([]byte(`{"access_token_validity_duration": 60000000000}`), &c))
	assert.Equal(t, time.Minute, c.AccessTokenValidityDuration.Duration)
}
