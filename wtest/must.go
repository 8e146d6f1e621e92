package wtest

import (
	"testing"

	"github.com/pkg/errors"
)

// Must shows a complete error stack and fails a test immediately
// if err is non-nil
func Must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("%+v", errors.WithStack(err))
		t.FailNow()
	}
}
