package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConCampos(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", App: "inventarios", Output: &buf})

	l.Named("branch_registry").ForBranch(3, "CEN").Info().Msg("sucursal registrada")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "inventarios", line["app"])
	assert.Equal(t, "branch_registry", line["component"])
	assert.Equal(t, "CEN", line["branch"])
	assert.EqualValues(t, 3, line["branch_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_FiltraPorNivel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "WARN", Output: &buf})

	l.Info().Msg("descartado")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestParseLevel_DesconocidoUsaInfo(t *testing.T) {
	assert.Equal(t, "info", parseLevel("verboso").String())
	assert.Equal(t, "info", parseLevel("").String())
	assert.Equal(t, "debug", parseLevel(" debug ").String())
}
