// Package xerr provides the engine's error and debug-timing conventions,
// adapted from the teacher's modules/trace: errors are logged at the call
// site via logrus before being returned, and a Tracker reports per-step
// timing when debug mode is on.
package xerr

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

func location(skip int) (string, int) {
	pc, _, line, ok := runtime.Caller(skip)
	if !ok {
		return "?", line
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "?", line
	}
	return fn.Name(), line
}

// Errorf formats an error, logs it at the call site, and returns it. Used
// for the engine's unrecoverable failures (§7: RoleResolutionError and
// other invariant violations) that must propagate rather than surface as
// a conflict record.
func Errorf(format string, a ...any) error {
	fn, line := location(2)
	msg := fmt.Sprintf(format, a...)
	logrus.Errorf("%s:%d %s", fn, line, msg)
	return errors.New(msg)
}

// Tracker times successive merge phases and prints them to stderr when
// debug mode is enabled, mirroring the teacher's Tracker.StepNext.
type Tracker struct {
	debug bool
	last  time.Time
}

func NewTracker(debugMode bool) *Tracker {
	return &Tracker{debug: debugMode, last: time.Now()}
}

func (t *Tracker) StepNext(format string, a ...any) {
	if !t.debug {
		return
	}
	s := fmt.Sprintf(format, a...)
	now := time.Now()
	fmt.Fprintf(os.Stderr, "* %s use time: %v\n", strings.Trim(s, "\n"), now.Sub(t.last))
	t.last = now
}
