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
	"errors"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/pipern/zookeeper-operator/api/objutilv1"
	"github.com/pipern/zookeeper-operator/api/v1alpha1"
	"github.com/pipern/zookeeper-operator/internal/indexes"
	"github.com/pipern/zookeeper-operator/internal/reconciliation/flow"
	"github.com/pipern/zookeeper-operator/lib/go/common/api"
)

// reconcileFinalizer runs the deletion protocol.
//
// It returns Continue while the cluster is live (after making sure the
// finalizer is present), and a terminal outcome once deletion is in progress.
func (r *Reconciler) reconcileFinalizer(ctx context.Context, zkc *v1alpha1.ZooKeeperCluster) flow.Outcome {
	ctx, log := flow.BeginPhase(ctx, "finalizer", "zookeeperCluster", zkc.Name, "namespace", zkc.Namespace)

	if !zkc.IsDeleting() {
		if objutilv1.HasFinalizer(zkc, v1alpha1.ControllerFinalizer) {
			return flow.Continue()
		}

		if _, err := api.PatchWithConflictRetry(ctx, r.cl, zkc, func(zkc *v1alpha1.ZooKeeperCluster) (bool, error) {
			return objutilv1.AddFinalizer(zkc, v1alpha1.ControllerFinalizer), nil
		}); err != nil {
			return flow.Failf(err, "adding finalizer to ZooKeeperCluster %s", zkc.Name)
		}

		log.V(1).Info("finalizer added")
		return flow.Continue()
	}

	if !objutilv1.HasFinalizer(zkc, v1alpha1.ControllerFinalizer) {
		return flow.Done()
	}

	log.Info("cluster is being deleted, cleaning up")

	if err := r.deleteMemberPods(ctx, zkc); err != nil {
		return flow.Fail(err)
	}

	if _, err := api.PatchWithConflictRetry(ctx, r.cl, zkc, func(zkc *v1alpha1.ZooKeeperCluster) (bool, error) {
		return objutilv1.RemoveFinalizer(zkc, v1alpha1.ControllerFinalizer), nil
	}); err != nil {
		if client.IgnoreNotFound(err) == nil {
			return flow.Done()
		}
		return flow.Failf(err, "removing finalizer from ZooKeeperCluster %s", zkc.Name)
	}

	log.Info("finalizer removed", "remainingFinalizers", zkc.Finalizers)
	return flow.Done()
}

// deleteMemberPods issues a delete for every pod controlled by zkc. It does
// not wait for the pods to go away.
func (r *Reconciler) deleteMemberPods(ctx context.Context, zkc *v1alpha1.ZooKeeperCluster) error {
	var pods corev1.PodList
	if err := r.cl.List(ctx, &pods,
		client.InNamespace(zkc.Namespace),
		client.MatchingFields{indexes.IndexFieldPodByZooKeeperClusterOwner: zkc.Name},
	); err != nil {
		return flow.Wrapf(err, "listing pods of ZooKeeperCluster %s", zkc.Name)
	}

	var errs []error
	for i := range pods.Items {
		pod := &pods.Items[i]
		// the index matches by owner name only
		if !objutilv1.HasControllerRef(pod, zkc) || pod.DeletionTimestamp != nil {
			continue
		}
		if err := r.cl.Delete(ctx, pod); client.IgnoreNotFound(err) != nil {
			errs = append(errs, flow.Wrapf(err, "deleting pod %s", pod.Name))
		}
	}
	return errors.Join(errs...)
}
