package logger

import (
	"os"
	"strings"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/config"
	"github.com/labstack/gommon/log"
)

const textHeader = "[${level}] - ${time_rfc3339} - ${prefix} -"

// New builds the process logger. Echo is handed the same instance so request
// logs and pipeline logs share level and format.
func New(prefix string, cfg config.Log) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(os.Stdout)
	l.SetLevel(ParseLevel(cfg.Level))
	if strings.EqualFold(cfg.Format, "text") {
		l.SetHeader(textHeader)
	}
	return l
}

func ParseLevel(level string) log.Lvl {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return log.DEBUG
	case "WARN", "WARNING":
		return log.WARN
	case "ERROR", "ERR":
		return log.ERROR
	case "OFF":
		return log.OFF
	default:
		return log.INFO
	}
}
