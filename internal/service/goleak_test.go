package service

import (
	"testing"

	"go.uber.org/goleak"
)

// Provider calls run under per-request timeouts; none may outlive a test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
