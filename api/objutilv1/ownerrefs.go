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
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/utils/ptr"
)

// ErrIncompleteOwner is returned when an OwnerReference cannot be built because
// the owner lacks a field the API server always assigns after creation.
var ErrIncompleteOwner = errors.New("owner object is incomplete")

// ControllerRef builds a controller OwnerReference pointing at owner.
//
// Typed objects read through a client usually have an empty TypeMeta, so the
// owner's GroupVersionKind is passed explicitly.
func ControllerRef(owner metav1.Object, gvk schema.GroupVersionKind) (metav1.OwnerReference, error) {
	if gvk.Empty() {
		return metav1.OwnerReference{}, fmt.Errorf("%w: empty GroupVersionKind", ErrIncompleteOwner)
	}
	if owner.GetName() == "" {
		return metav1.OwnerReference{}, fmt.Errorf("%w: .metadata.name is empty", ErrIncompleteOwner)
	}
	if owner.GetUID() == "" {
		return metav1.OwnerReference{}, fmt.Errorf("%w: .metadata.uid is empty", ErrIncompleteOwner)
	}

	return metav1.OwnerReference{
		APIVersion:         gvk.GroupVersion().String(),
		Kind:               gvk.Kind,
		Name:               owner.GetName(),
		UID:                owner.GetUID(),
		Controller:         ptr.To(true),
		BlockOwnerDeletion: ptr.To(true),
	}, nil
}

// HasControllerRef reports whether obj is controlled by owner (matched by UID).
func HasControllerRef(obj metav1.Object, owner metav1.Object) bool {
	ref := metav1.GetControllerOfNoCopy(obj)
	return ref != nil && owner.GetUID() != "" && ref.UID == owner.GetUID()
}

// ControllerName returns the name of the controller owner of obj if it has the given kind.
func ControllerName(obj metav1.Object, gvk schema.GroupVersionKind) (string, bool) {
	ref := metav1.GetControllerOfNoCopy(obj)
	if ref == nil || ref.Kind != gvk.Kind || ref.APIVersion != gvk.GroupVersion().String() {
		return "", false
	}
	return ref.Name, true
}
