package sim

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

// TestMain keeps per-snapshot and build logs out of test output.
// Run with DEBUG_TESTS=1 to see them, e.g. DEBUG_TESTS=1 go test ./sim -run Simulator -v
func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}
