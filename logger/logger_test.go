package logger

import (
	"testing"
)

func TestLogging(t *testing.T) {
	l := NewZapLogger("governance-test")
	l.SetLogLevel("debug")
	l.Info("this is a info log test")
	l.Warn("this is a warn log test")
	l.Error("this is a error log test", WithField("age", 100), WithField("pool", "helix1poolalpha"))
	l.Debug("this is a debug log test")
	l.Infof("formatted %s test", "info")
}
