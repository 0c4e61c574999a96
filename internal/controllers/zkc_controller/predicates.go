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
	"maps"
	"slices"

	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
)

// zkcPredicates returns predicates for ZooKeeperCluster events.
// Reacts to:
// - Generation changes (spec updates)
// - DeletionTimestamp changes (start of deletion)
// - Finalizers changes
// Pure status updates are ignored; the controller writes status itself.
func zkcPredicates() []predicate.Predicate {
	return []predicate.Predicate{
		predicate.TypedFuncs[client.Object]{
			UpdateFunc: func(e event.TypedUpdateEvent[client.Object]) bool {
				if e.ObjectNew == nil || e.ObjectOld == nil {
					return true
				}

				if e.ObjectNew.GetGeneration() != e.ObjectOld.GetGeneration() {
					return true
				}

				if (e.ObjectOld.GetDeletionTimestamp() == nil) != (e.ObjectNew.GetDeletionTimestamp() == nil) {
					return true
				}

				return !slices.Equal(e.ObjectNew.GetFinalizers(), e.ObjectOld.GetFinalizers())
			},
		},
	}
}

// podPredicates returns predicates for owned Pod events.
// Create and delete always pass. Updates pass when something the controller
// applies may have drifted: generation, labels, owner references or the start
// of deletion.
func podPredicates() []predicate.Predicate {
	return []predicate.Predicate{
		predicate.TypedFuncs[client.Object]{
			UpdateFunc: func(e event.TypedUpdateEvent[client.Object]) bool {
				if e.ObjectNew == nil || e.ObjectOld == nil {
					return true
				}

				if e.ObjectNew.GetGeneration() != e.ObjectOld.GetGeneration() {
					return true
				}

				if (e.ObjectOld.GetDeletionTimestamp() == nil) != (e.ObjectNew.GetDeletionTimestamp() == nil) {
					return true
				}

				if !maps.Equal(e.ObjectNew.GetLabels(), e.ObjectOld.GetLabels()) {
					return true
				}

				return len(e.ObjectNew.GetOwnerReferences()) != len(e.ObjectOld.GetOwnerReferences())
			},
			GenericFunc: func(event.TypedGenericEvent[client.Object]) bool { return false },
		},
	}
}
