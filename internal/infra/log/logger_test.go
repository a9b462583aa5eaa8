package logs

import (
	"bytes"
	"encoding/json"
	"testing"

	"storefront/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_JSONCarriesServiceAttributes(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.ServiceName = "storefront"
	cfg.Env.Env = "test"
	cfg.Env.Log.Level = "info"

	var buf bytes.Buffer
	logger, err := build(&buf, cfg)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("listing created")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "listing created", record["msg"])
	assert.Equal(t, "storefront", record["service"])
	assert.Equal(t, "test", record["env"])
}

func TestParseLogLevel_Unknown(t *testing.T) {
	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}
