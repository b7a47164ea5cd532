// Package logging provides the structured logger used by cmd/gobori and,
// when a Solver has verbose mode enabled, by the search loop's narration
// points. Every Narrator method is a no-op on a nil receiver, so a
// *Narrator can be passed around (and left nil in tests) without a guard at
// every call site.
package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the base logger. Verbose selects Debug level (used by -v on the
// CLI); otherwise only Info and above are emitted.
func New(verbose bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// Narrator emits structured log lines at the search loop's milestone events:
// attempt start, restart, solution, conflict, and the propagation brackets.
// Every method is nil-safe so a *Narrator can be left unset when no -v flag
// was given.
type Narrator struct {
	log       *logrus.Logger
	startTime time.Time
	propStart time.Time
}

// NewNarrator wraps log, or returns nil if log is nil.
func NewNarrator(log *logrus.Logger) *Narrator {
	if log == nil {
		return nil
	}
	return &Narrator{log: log, startTime: time.Now()}
}

func (n *Narrator) Attempt(budget int, restarts int) {
	if n == nil {
		return
	}
	n.log.WithFields(logrus.Fields{"budget": budget, "restarts": restarts}).Debug("search attempt starting")
}

func (n *Narrator) Restart(count int, innerLimit, outerLimit float64, nogoods int) {
	if n == nil {
		return
	}
	n.log.WithFields(logrus.Fields{
		"restart":    count,
		"innerLimit": innerLimit,
		"outerLimit": outerLimit,
		"nogoods":    nogoods,
	}).Debug("search restarted")
}

func (n *Narrator) Solution(depth int) {
	if n == nil {
		return
	}
	n.log.WithField("depth", depth).Debug("solution found")
}

func (n *Narrator) Conflict(learned bool, nogoods int) {
	if n == nil {
		return
	}
	n.log.WithFields(logrus.Fields{"learned": learned, "nogoods": nogoods}).Debug("conflict at dead end")
}

// StartPropagation/EndPropagation bracket one Model.Propagate call, logged
// rather than accumulated since Stats already tracks counts.
func (n *Narrator) StartPropagation() {
	if n == nil {
		return
	}
	n.propStart = time.Now()
}

func (n *Narrator) EndPropagation(ok bool) {
	if n == nil || n.propStart.IsZero() {
		return
	}
	elapsed := time.Since(n.propStart)
	n.propStart = time.Time{}
	n.log.WithFields(logrus.Fields{"ok": ok, "elapsed": elapsed}).Debug("propagation fixpoint")
}

// Summary logs the end-of-search statistics as a single structured line.
func (n *Narrator) Summary(fields map[string]any) {
	if n == nil {
		return
	}
	f := make(logrus.Fields, len(fields)+1)
	for k, v := range fields {
		f[k] = v
	}
	f["elapsed"] = time.Since(n.startTime)
	n.log.WithFields(f).Info("search finished")
}
