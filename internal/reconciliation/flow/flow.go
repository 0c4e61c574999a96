/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package flow carries reconcile decisions between phases of a Reconcile call.
//
// A phase returns an [Outcome]: either "keep going" or a terminal decision
// (done, fail, requeue after).
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Wrapf wraps err with formatted context.
//
// It returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Outcome bundles a reconcile return decision and an optional error.
//
// A nil result means the caller should continue with the next phase.
type Outcome struct {
	result *ctrl.Result
	err    error
}

// ShouldReturn reports whether the Outcome is terminal for the current Reconcile.
func (o Outcome) ShouldReturn() bool { return o.result != nil }

// ToCtrl converts the Outcome into controller-runtime Reconcile return values.
func (o Outcome) ToCtrl() (ctrl.Result, error) {
	if o.result == nil {
		return ctrl.Result{}, o.err
	}
	return *o.result, o.err
}

// Begin starts the root phase of reconciliation.
// It returns ctx and the logger stored in it (or the default logger if ctx has none).
func Begin(ctx context.Context) (context.Context, logr.Logger) {
	return ctx, log.FromContext(ctx)
}

// BeginPhase starts a named sub-phase. The returned ctx carries a logger named
// after the phase and enriched with keysAndValues.
//
// phaseName must be a '/'-separated list of non-empty ASCII identifiers;
// anything else is a programming error and panics.
func BeginPhase(ctx context.Context, phaseName string, keysAndValues ...any) (context.Context, logr.Logger) {
	mustBeValidPhaseName(phaseName)
	l := log.FromContext(ctx).WithName(phaseName)
	if len(keysAndValues) > 0 {
		l = l.WithValues(keysAndValues...)
	}
	return log.IntoContext(ctx, l), l
}

// Continue tells the caller to run the next phase.
func Continue() Outcome { return Outcome{} }

// Done stops the reconcile without scheduling a requeue.
func Done() Outcome { return Outcome{result: &ctrl.Result{}} }

// Fail stops the reconcile with an error.
func Fail(e error) Outcome {
	if e == nil {
		panic("flow.Fail: nil error")
	}
	return Outcome{result: &ctrl.Result{}, err: e}
}

// Failf is like Fail, but wraps err using Wrapf(format, args...).
func Failf(err error, format string, args ...any) Outcome {
	return Fail(Wrapf(err, format, args...))
}

// RequeueAfter stops the reconcile and asks for another pass after dur.
func RequeueAfter(dur time.Duration) Outcome {
	if dur <= 0 {
		panic("flow.RequeueAfter: duration must be > 0")
	}
	return Outcome{result: &ctrl.Result{RequeueAfter: dur}}
}

func mustBeValidPhaseName(name string) {
	for _, seg := range strings.Split(name, "/") {
		if seg == "" {
			panic("flow.BeginPhase: phaseName must not contain empty segments: " + name)
		}
		for i := 0; i < len(seg); i++ {
			c := seg[i]
			ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
				c == '-' || c == '_' || c == '.'
			if !ok {
				panic(fmt.Sprintf("flow.BeginPhase: phaseName contains unsupported character %q: %s", c, name))
			}
		}
	}
}
