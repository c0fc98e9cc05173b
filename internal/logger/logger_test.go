package logger

import (
	"testing"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/config"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, log.DEBUG, ParseLevel("debug"))
	assert.Equal(t, log.WARN, ParseLevel(" warning "))
	assert.Equal(t, log.ERROR, ParseLevel("ERR"))
	assert.Equal(t, log.OFF, ParseLevel("off"))
	assert.Equal(t, log.INFO, ParseLevel(""))
	assert.Equal(t, log.INFO, ParseLevel("verbose"))
}

func TestNew(t *testing.T) {
	t.Parallel()

	l := New("checkout", config.Log{Level: "warn", Format: "text"})
	assert.Equal(t, log.WARN, l.Level())
	assert.Equal(t, "checkout", l.Prefix())
}
