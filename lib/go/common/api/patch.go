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

package api

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	kerrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ConflictRetryBackoff is the backoff policy used by PatchWithConflictRetry and
// PatchStatusWithConflictRetry to retry conditional patches on transient conflicts.
var ConflictRetryBackoff = wait.Backoff{
	Steps:    6,
	Duration: 1 * time.Millisecond,
	Cap:      50 * time.Millisecond,
	Factor:   2.0,
	Jitter:   0.25,
}

var errReloadDidNotHappen = errors.New("resource reload did not happen")

// MutateFunc changes resource in place and reports whether it changed anything.
// Returning changed=false skips the request entirely.
type MutateFunc[T client.Object] func(resource T) (changed bool, err error)

// PatchStatusWithConflictRetry applies a conditional merge-patch to the status
// subresource. See PatchWithConflictRetry for the retry semantics.
func PatchStatusWithConflictRetry[T client.Object](
	ctx context.Context,
	cl client.Client,
	resource T,
	mutate MutateFunc[T],
) (patched bool, err error) {
	return patch(ctx, cl, true, resource, mutate)
}

// PatchWithConflictRetry applies a conditional merge-patch to the main resource
// (spec/metadata).
//
// The patch carries only the fields changed by mutate plus a resourceVersion
// precondition, so concurrent writers of unrelated fields (e.g. other
// controllers' finalizers) are never overwritten. On 409 Conflict the resource
// is re-read and mutate is evaluated again against the fresh copy, which makes
// "add if absent"/"remove if present" mutations safe to retry.
//
// The resource must be a non-nil pointer to a struct; otherwise this function panics.
func PatchWithConflictRetry[T client.Object](
	ctx context.Context,
	cl client.Client,
	resource T,
	mutate MutateFunc[T],
) (patched bool, err error) {
	return patch(ctx, cl, false, resource, mutate)
}

func patch[T client.Object](
	ctx context.Context,
	cl client.Client,
	status bool,
	resource T,
	mutate MutateFunc[T],
) (patched bool, err error) {
	assertNonNilPtrToStruct(resource)

	var conflictedResourceVersion string

	err = retry.OnError(
		ConflictRetryBackoff,
		func(err error) bool {
			return kerrors.IsConflict(err) || errors.Is(err, errReloadDidNotHappen)
		},
		func() error {
			resourceVersion := resource.GetResourceVersion()

			if conflictedResourceVersion != "" && resourceVersion == conflictedResourceVersion {
				// Get decodes on top of the existing value; drop the local mutation first.
				key := client.ObjectKeyFromObject(resource)
				reflect.ValueOf(resource).Elem().SetZero()
				if err := cl.Get(ctx, key, resource); err != nil {
					return fmt.Errorf("reloading after conflict: %w", err)
				}
				if resource.GetResourceVersion() == conflictedResourceVersion {
					return errReloadDidNotHappen
				}
			}

			base := resource.DeepCopyObject().(client.Object)

			changed, err := mutate(resource)
			if err != nil || !changed {
				return err
			}

			p := client.MergeFromWithOptions(base, client.MergeFromWithOptimisticLock{})
			if status {
				err = cl.Status().Patch(ctx, resource, p)
			} else {
				err = cl.Patch(ctx, resource, p)
			}
			if kerrors.IsConflict(err) {
				conflictedResourceVersion = resourceVersion
				return err
			}
			if err != nil {
				return err
			}

			patched = true
			return nil
		},
	)
	return patched, err
}

func assertNonNilPtrToStruct[T any](obj T) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Pointer || rt.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("T must be a pointer to a struct; got %s", rt))
	}
	if reflect.ValueOf(obj).IsNil() {
		panic("obj must not be nil")
	}
}
