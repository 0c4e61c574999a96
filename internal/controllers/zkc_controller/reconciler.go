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

package zkccontroller

import (
	"context"
	"time"

	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/pipern/zookeeper-operator/api/v1alpha1"
	"github.com/pipern/zookeeper-operator/internal/reconciliation/flow"
	"github.com/pipern/zookeeper-operator/internal/state"
)

type Options struct {
	// ImageRepository is combined with spec.version into the member image.
	// Empty means v1alpha1.DefaultImageRepository.
	ImageRepository string

	// ReconcileTimeout bounds a single Reconcile call. Zero disables the deadline.
	ReconcileTimeout time.Duration

	// Clock stamps condition transitions. Nil means the real clock.
	Clock clock.PassiveClock
}

type Reconciler struct {
	cl    client.Client
	store *state.Store
	clock clock.PassiveClock

	imageRepository  string
	reconcileTimeout time.Duration
}

var _ reconcile.Reconciler = (*Reconciler)(nil)

func NewReconciler(cl client.Client, store *state.Store, opts Options) *Reconciler {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	imageRepository := opts.ImageRepository
	if imageRepository == "" {
		imageRepository = v1alpha1.DefaultImageRepository
	}
	return &Reconciler{
		cl:               cl,
		store:            store,
		clock:            clk,
		imageRepository:  imageRepository,
		reconcileTimeout: opts.ReconcileTimeout,
	}
}

// Reconcile pattern: In-place reconciliation
func (r *Reconciler) Reconcile(ctx context.Context, req reconcile.Request) (reconcile.Result, error) {
	r.store.MarkEvent()

	if r.reconcileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.reconcileTimeout)
		defer cancel()
	}

	ctx, _ = flow.Begin(ctx)

	res, err := r.reconcile(ctx, req).ToCtrl()
	if err != nil {
		return r.handleError(ctx, req, err), nil
	}
	return res, nil
}

func (r *Reconciler) reconcile(ctx context.Context, req reconcile.Request) flow.Outcome {
	zkc := &v1alpha1.ZooKeeperCluster{}
	if err := r.cl.Get(ctx, req.NamespacedName, zkc); err != nil {
		if client.IgnoreNotFound(err) == nil {
			return flow.Done()
		}
		return flow.Failf(err, "getting ZooKeeperCluster %s", req.NamespacedName)
	}

	if outcome := r.reconcileFinalizer(ctx, zkc); outcome.ShouldReturn() {
		return outcome
	}

	applied, applyErr := r.reconcilePods(ctx, zkc)

	if outcome := r.reconcileStatus(ctx, zkc, applied, applyErr); outcome.ShouldReturn() {
		return outcome
	}

	r.store.IncHandled()

	return flow.RequeueAfter(v1alpha1.RequeueAfterSuccess)
}
