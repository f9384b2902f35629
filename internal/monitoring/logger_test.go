package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// Now set to nil and verify it doesn't call our logger
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}

func TestPrefixed(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	logf := Prefixed("filter")

	// SetLogger after Prefixed must still capture the output.
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	logf("nj=%d", 3)

	if want := "[filter] nj=3"; got != want {
		t.Errorf("Prefixed output = %q, want %q", got, want)
	}
}
