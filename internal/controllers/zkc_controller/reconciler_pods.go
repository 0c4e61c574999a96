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

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/pipern/zookeeper-operator/api/v1alpha1"
	"github.com/pipern/zookeeper-operator/internal/reconciliation/flow"
)

// reconcilePods applies the desired member pods in index order and reports
// how many were applied. The first failure stops the pass; pods already
// applied stay as they are.
func (r *Reconciler) reconcilePods(ctx context.Context, zkc *v1alpha1.ZooKeeperCluster) (applied int32, err error) {
	ctx, log := flow.BeginPhase(ctx, "pods", "zookeeperCluster", zkc.Name, "namespace", zkc.Namespace)

	pods, err := computeDesiredPods(zkc, r.imageRepository)
	if err != nil {
		return 0, flow.Wrapf(err, "computing pods of ZooKeeperCluster %s", zkc.Name)
	}

	for _, pod := range pods {
		if err := r.applyPod(ctx, pod); err != nil {
			return applied, err
		}
		applied++
	}

	log.V(1).Info("pods applied", "count", applied)
	return applied, nil
}

// applyPod server-side applies pod. Repeating it with the same pod is a no-op
// on the server.
func (r *Reconciler) applyPod(ctx context.Context, pod *corev1.Pod) error {
	if err := r.cl.Patch(
		ctx,
		pod,
		client.Apply,
		client.FieldOwner(v1alpha1.FieldManager),
		client.ForceOwnership,
	); err != nil {
		return flow.Wrapf(err, "applying pod %s", pod.Name)
	}
	return nil
}
