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

package objutilv1

import (
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ConditionSemanticallyEqual compares conditions ignoring LastTransitionTime.
//
// This is used to avoid bumping LastTransitionTime when only ObservedGeneration changes.
func ConditionSemanticallyEqual(a, b *metav1.Condition) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Type == b.Type &&
		a.Status == b.Status &&
		a.Reason == b.Reason &&
		a.Message == b.Message &&
		a.ObservedGeneration == b.ObservedGeneration
}

func IsStatusConditionPresentAndTrue(obj StatusConditionObject, condType string) bool {
	actual := meta.FindStatusCondition(obj.GetStatusConditions(), condType)
	return actual != nil && actual.Status == metav1.ConditionTrue
}

func IsStatusConditionPresentAndSemanticallyEqual(obj StatusConditionObject, expected metav1.Condition) bool {
	actual := meta.FindStatusCondition(obj.GetStatusConditions(), expected.Type)
	return actual != nil && ConditionSemanticallyEqual(actual, &expected)
}

// SetStatusCondition upserts cond into `.status.conditions` and reports whether
// anything changed. ObservedGeneration is taken from obj.
//
// LastTransitionTime is set to now only for a new condition or a Status flip;
// Reason/Message-only updates keep the stored timestamp.
func SetStatusCondition(obj StatusConditionObject, cond metav1.Condition, now metav1.Time) (changed bool) {
	cond.ObservedGeneration = obj.GetGeneration()

	conds := obj.GetStatusConditions()
	if old := meta.FindStatusCondition(conds, cond.Type); old == nil || old.Status != cond.Status {
		cond.LastTransitionTime = now
	} else {
		cond.LastTransitionTime = old.LastTransitionTime
	}

	if !meta.SetStatusCondition(&conds, cond) {
		return false
	}
	obj.SetStatusConditions(conds)
	return true
}
