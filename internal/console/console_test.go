package console

import (
	"os"
	"testing"
)

func TestConsoleMethodsDoNotPanic(t *testing.T) {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer devNull.Close()

	c := New(devNull)
	c.Infof("dispatcher ready")
	c.Warnf("skipping malformed unit %s", "bad.toml")
	c.Errorf("bind failed: %v", os.ErrClosed)
}
