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

package scheme

import (
	"context"
	"errors"
	"fmt"
	"slices"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	kerrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/pipern/zookeeper-operator/api/v1alpha1"
)

var ErrCRDNotRegistered = errors.New("custom resource definition is not registered")

// CRDDescriptor names a custom resource the controller depends on.
type CRDDescriptor struct {
	GroupVersionKind schema.GroupVersionKind
	Plural           string
}

// Name is the CustomResourceDefinition object name.
func (d CRDDescriptor) Name() string {
	return d.Plural + "." + d.GroupVersionKind.Group
}

// RequiredCRDs lists the custom resources that must be served before the
// manager starts.
var RequiredCRDs = []CRDDescriptor{
	{
		GroupVersionKind: v1alpha1.ZooKeeperClusterGVK,
		Plural:           "zookeeperclusters",
	},
}

// CheckCRDs verifies that every descriptor is installed, established and
// serves the expected version. It reads straight from the API server, so it
// works before the cache is started.
func CheckCRDs(ctx context.Context, r client.Reader, descriptors []CRDDescriptor) error {
	for _, d := range descriptors {
		if err := checkCRD(ctx, r, d); err != nil {
			return err
		}
	}
	return nil
}

func checkCRD(ctx context.Context, r client.Reader, d CRDDescriptor) error {
	crd := &apiextensionsv1.CustomResourceDefinition{}
	if err := r.Get(ctx, client.ObjectKey{Name: d.Name()}, crd); err != nil {
		if kerrors.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrCRDNotRegistered, d.Name())
		}
		return fmt.Errorf("getting crd %s: %w", d.Name(), err)
	}

	if crd.Spec.Names.Kind != d.GroupVersionKind.Kind {
		return fmt.Errorf("%w: %s has kind %q, expected %q",
			ErrCRDNotRegistered, d.Name(), crd.Spec.Names.Kind, d.GroupVersionKind.Kind)
	}

	served := slices.ContainsFunc(crd.Spec.Versions, func(v apiextensionsv1.CustomResourceDefinitionVersion) bool {
		return v.Name == d.GroupVersionKind.Version && v.Served
	})
	if !served {
		return fmt.Errorf("%w: %s does not serve version %s",
			ErrCRDNotRegistered, d.Name(), d.GroupVersionKind.Version)
	}

	established := slices.ContainsFunc(crd.Status.Conditions, func(c apiextensionsv1.CustomResourceDefinitionCondition) bool {
		return c.Type == apiextensionsv1.Established && c.Status == apiextensionsv1.ConditionTrue
	})
	if !established {
		return fmt.Errorf("%w: %s is not established", ErrCRDNotRegistered, d.Name())
	}

	return nil
}
