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
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/pipern/zookeeper-operator/api/objutilv1"
	"github.com/pipern/zookeeper-operator/api/v1alpha1"
	"github.com/pipern/zookeeper-operator/internal/reconciliation/flow"
	"github.com/pipern/zookeeper-operator/lib/go/common/api"
)

// reconcileStatus records the outcome of the pods phase.
//
// A pods failure is written as a bad status and then returned as Fail, so the
// error still reaches the error policy. Writing that status is best effort.
func (r *Reconciler) reconcileStatus(
	ctx context.Context,
	zkc *v1alpha1.ZooKeeperCluster,
	applied int32,
	podsErr error,
) flow.Outcome {
	ctx, log := flow.BeginPhase(ctx, "status", "zookeeperCluster", zkc.Name, "namespace", zkc.Namespace)

	cond := computeReadyCondition(applied, podsErr)

	if isStatusInSync(zkc, applied, podsErr, cond) {
		if podsErr != nil {
			return flow.Fail(podsErr)
		}
		return flow.Continue()
	}

	wasReady := objutilv1.IsStatusConditionPresentAndTrue(zkc, v1alpha1.ZooKeeperClusterCondReadyType)
	now := metav1.NewTime(r.clock.Now())

	_, err := api.PatchStatusWithConflictRetry(ctx, r.cl, zkc, func(zkc *v1alpha1.ZooKeeperCluster) (bool, error) {
		return applyStatus(zkc, applied, podsErr, cond, now), nil
	})

	if podsErr != nil {
		if err != nil && client.IgnoreNotFound(err) != nil {
			log.Error(err, "writing failure status")
			return flow.Fail(errors.Join(podsErr, flow.Wrapf(err, "patching ZooKeeperCluster %s status", zkc.Name)))
		}
		return flow.Fail(podsErr)
	}

	if err != nil {
		if client.IgnoreNotFound(err) == nil {
			return flow.Done()
		}
		return flow.Failf(err, "patching ZooKeeperCluster %s status", zkc.Name)
	}

	if !wasReady {
		log.Info("cluster is ready", "replicas", applied)
	}

	return flow.Continue()
}

func isStatusInSync(zkc *v1alpha1.ZooKeeperCluster, applied int32, podsErr error, cond metav1.Condition) bool {
	if zkc.Status.IsBad == nil || zkc.Status.Bad() != (podsErr != nil) || zkc.Status.ObservedGeneration != zkc.Generation {
		return false
	}
	if podsErr == nil && zkc.Status.Replicas != applied {
		return false
	}
	cond.ObservedGeneration = zkc.Generation
	return objutilv1.IsStatusConditionPresentAndSemanticallyEqual(zkc, cond)
}

func computeReadyCondition(applied int32, podsErr error) metav1.Condition {
	switch {
	case podsErr == nil:
		return metav1.Condition{
			Type:    v1alpha1.ZooKeeperClusterCondReadyType,
			Status:  metav1.ConditionTrue,
			Reason:  v1alpha1.ZooKeeperClusterCondReadyReasonProvisioned,
			Message: fmt.Sprintf("%d ensemble member pods applied", applied),
		}
	case errors.Is(podsErr, v1alpha1.ErrUnsupportedVersion),
		errors.Is(podsErr, v1alpha1.ErrInvalidReplicas),
		errors.Is(podsErr, v1alpha1.ErrMissingObjectKey):
		return metav1.Condition{
			Type:    v1alpha1.ZooKeeperClusterCondReadyType,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.ZooKeeperClusterCondReadyReasonInvalidSpec,
			Message: podsErr.Error(),
		}
	default:
		return metav1.Condition{
			Type:    v1alpha1.ZooKeeperClusterCondReadyType,
			Status:  metav1.ConditionFalse,
			Reason:  v1alpha1.ZooKeeperClusterCondReadyReasonApplyFailed,
			Message: podsErr.Error(),
		}
	}
}

// applyStatus writes the derived status into zkc and reports whether it changed.
// status.replicas keeps the value of the last successful pass on failure.
func applyStatus(
	zkc *v1alpha1.ZooKeeperCluster,
	applied int32,
	podsErr error,
	cond metav1.Condition,
	now metav1.Time,
) (changed bool) {
	// unset until the first write, so false still reaches the patch
	isBad := podsErr != nil
	if zkc.Status.IsBad == nil || zkc.Status.Bad() != isBad {
		zkc.Status.IsBad = ptr.To(isBad)
		changed = true
	}

	if podsErr == nil && zkc.Status.Replicas != applied {
		zkc.Status.Replicas = applied
		changed = true
	}

	if zkc.Status.ObservedGeneration != zkc.Generation {
		zkc.Status.ObservedGeneration = zkc.Generation
		changed = true
	}

	if objutilv1.SetStatusCondition(zkc, cond, now) {
		changed = true
	}

	return changed
}
