package metadata

import (
	"fmt"
	"reflect"

	"github.com/syssam/metamodel"
)

// ReadOnlyEntityType is the read-only view of an EntityType. Only
// *EntityType is accepted where a mutable entity type is required.
type ReadOnlyEntityType interface {
	Name() string
	DisplayName() string
	NativeType() reflect.Type
	IsDelegated() bool
}

var _ ReadOnlyEntityType = (*EntityType)(nil)

// AsEntityType returns the built-in EntityType behind e. Other implementations
// of ReadOnlyEntityType are rejected with a CustomMetadataError.
func AsEntityType(e ReadOnlyEntityType) (*EntityType, error) {
	if et, ok := e.(*EntityType); ok && et != nil {
		return et, nil
	}
	return nil, &metamodel.CustomMetadataError{
		Method:         "AsEntityType",
		Interface:      "ReadOnlyEntityType",
		Implementation: fmt.Sprintf("%T", e),
	}
}
