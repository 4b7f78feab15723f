package isr

import (
	"testing"

	"go.uber.org/goleak"
)

// every background regeneration must be finished by the time a test that
// started it returns
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
