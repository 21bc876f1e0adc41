package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigure(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { _ = Configure(DefaultLevel, nil) })

	if err := Configure("DEBUG", &buf); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if got := L().GetLevel(); got != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}

	Entity("c1", logrus.Fields{"attempt": 3}).Debug("poll tick")
	out := buf.String()
	for _, want := range []string{"poll tick", "container=c1", "attempt=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestConfigure_DefaultsAndErrors(t *testing.T) {
	t.Cleanup(func() { _ = Configure(DefaultLevel, nil) })

	if err := Configure("", nil); err != nil {
		t.Fatalf("Configure(\"\") error: %v", err)
	}
	if got := L().GetLevel(); got != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", got)
	}
	if err := Configure("loud", nil); err == nil {
		t.Error("expected error for unknown level")
	}
}
