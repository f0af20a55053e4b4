package testutil

import (
	"io"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
)

// Importing testutil quiets the standard logger unless the test binary runs
// verbosely, in which case everything down to trace level is shown.
func init() {
	logrus.SetLevel(logrus.TraceLevel)
	if !slices.Contains(os.Args, "-test.v=true") {
		logrus.SetOutput(io.Discard)
	}
}
