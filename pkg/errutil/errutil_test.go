package errutil

import (
	"errors"
	"os"
	"testing"
)

var (
	err1 = errors.New("close send: bad fd")
	err2 = errors.New("close recv: bad fd")
)

func TestMulti(t *testing.T) {
	if err := Multi(); err != nil {
		t.Errorf("Multi() -> %v, want nil", err)
	}
	if err := Multi(nil, nil); err != nil {
		t.Errorf("Multi(nil, nil) -> %v, want nil", err)
	}
	if err := Multi(nil, err1); err != err1 {
		t.Errorf("Multi(nil, err1) -> %v, want err1", err)
	}

	err := Multi(Multi(err1, nil), Multi(err2, os.ErrClosed))
	want := "multiple errors: close send: bad fd; close recv: bad fd; " +
		os.ErrClosed.Error()
	if err == nil || err.Error() != want {
		t.Errorf("nested Multi -> %v, want %q", err, want)
	}
	if !errors.Is(err, os.ErrClosed) {
		t.Errorf("errors.Is(Multi(...), os.ErrClosed) = false, want true")
	}
}
