package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamed_AgregaComponente(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug").Named("checkout")

	l.Info().Str("order_id", "o-1").Msg("pedido registrado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "checkout", line["component"])
	assert.Equal(t, "o-1", line["order_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNivel_FiltraEventos(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info().Msg("no debe salir")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("sí sale")
	assert.NotZero(t, buf.Len())
}

func TestNivelInvalido_UsaInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "verboso")

	l.Debug().Msg("descartado")
	l.Info().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), "descartado")
}

func TestNop_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error().Msg("nada") })
}

func TestWith_AgregaCampo(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "info").With("request_id", "req-9").Info().Msg("hola")
	assert.Contains(t, buf.String(), `"request_id":"req-9"`)
}
