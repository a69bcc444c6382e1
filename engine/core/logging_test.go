package core

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLogErrorKeepsPercentSigns(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() { SetLogOutput(os.Stderr) })

	err := errors.New("put exports/garden%20bed%2F1.png: 100% failed")
	LogError("%s", err)
	if out := buf.String(); !strings.Contains(out, err.Error()) {
		t.Fatalf("log line %q does not contain %q", out, err.Error())
	}
}
