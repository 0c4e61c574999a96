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

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/pipern/zookeeper-operator/api/v1alpha1"
)

// ErrorPolicy maps a failed reconcile to its retry directive.
// Every error is treated as transient and retried after the same interval.
func ErrorPolicy(error) reconcile.Result {
	return reconcile.Result{RequeueAfter: v1alpha1.RequeueAfterError}
}

// handleError logs err and converts it into the ErrorPolicy directive.
// controller-runtime ignores RequeueAfter when an error is returned, so the
// error stops here.
func (r *Reconciler) handleError(ctx context.Context, req reconcile.Request, err error) reconcile.Result {
	res := ErrorPolicy(err)
	log.FromContext(ctx).Error(err, "reconcile failed",
		"zookeeperCluster", req.Name,
		"namespace", req.Namespace,
		"requeueAfter", res.RequeueAfter,
	)
	return res
}
