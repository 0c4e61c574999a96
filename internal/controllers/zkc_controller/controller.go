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
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"github.com/pipern/zookeeper-operator/api/v1alpha1"
	"github.com/pipern/zookeeper-operator/internal/state"
)

const (
	// ControllerName is the controller name for zookeepercluster-controller.
	ControllerName = "zookeepercluster-controller"
)

func BuildController(mgr manager.Manager, store *state.Store, opts Options) error {
	rec := NewReconciler(mgr.GetClient(), store, opts)

	return builder.ControllerManagedBy(mgr).
		Named(ControllerName).
		For(&v1alpha1.ZooKeeperCluster{}, builder.WithPredicates(zkcPredicates()...)).
		Owns(&corev1.Pod{}, builder.WithPredicates(podPredicates()...)).
		WithOptions(controller.Options{MaxConcurrentReconciles: 10}).
		Complete(rec)
}
