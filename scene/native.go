package scene

import (
	"context"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/native"
)

// Native is the scene-graph library ABI. Every call reports failure through
// st; results are meaningless when st is pending.
type Native interface {
	NewHandle(st *native.Status) handlekit.ID
	CopyHandle(id handlekit.ID, st *native.Status) handlekit.ID
	// Upcast returns the object layer identifier beneath a handle.
	Upcast(id handlekit.ID, st *native.Status) handlekit.ID
	DeleteHandle(id handlekit.ID, st *native.Status)
	ReleaseObject(obj handlekit.ID, st *native.Status)

	Supports(id handlekit.ID, c Capability, st *native.Status) bool
	PropertyCount(id handlekit.ID, st *native.Status) uint32
	PropertyName(id handlekit.ID, index int32, st *native.Status) string
	PropertyIndex(id handlekit.ID, name string, st *native.Status) int32
	IsPropertyWritable(id handlekit.ID, index int32, st *native.Status) bool
	IsPropertyAnimatable(id handlekit.ID, index int32, st *native.Status) bool
	IsPropertyAConstraintInput(id handlekit.ID, index int32, st *native.Status) bool
	PropertyType(id handlekit.ID, index int32, st *native.Status) PropertyType
	SetProperty(id handlekit.ID, index int32, v Value, st *native.Status)
	Property(id handlekit.ID, index int32, st *native.Status) Value
	RegisterProperty(id handlekit.ID, name string, v Value, mode AccessMode, st *native.Status) int32
	PropertyIndices(id handlekit.ID, st *native.Status) []int32

	AddPropertyNotification(id handlekit.ID, index, component int32, cond Condition, st *native.Status) handlekit.ID
	RemovePropertyNotification(id, notification handlekit.ID, st *native.Status)
	RemovePropertyNotifications(id handlekit.ID, st *native.Status)
	NotificationTriggered(notification handlekit.ID, st *native.Status) uint32
	DeleteNotification(notification handlekit.ID, st *native.Status)

	RemoveConstraints(id handlekit.ID, st *native.Status)
	RemoveConstraintsByTag(id handlekit.ID, tag uint32, st *native.Status)
}

// Operation names used in errors and failure injection.
const (
	OpNewHandle                  = "new-handle"
	OpCopyHandle                 = "copy-handle"
	OpUpcast                     = "upcast"
	OpDeleteHandle               = "delete-handle"
	OpReleaseObject              = "release-object"
	OpSupports                   = "supports"
	OpPropertyCount              = "get-property-count"
	OpPropertyName               = "get-property-name"
	OpPropertyIndex              = "get-property-index"
	OpIsPropertyWritable         = "is-property-writable"
	OpIsPropertyAnimatable       = "is-property-animatable"
	OpIsPropertyAConstraintInput = "is-property-a-constraint-input"
	OpPropertyType               = "get-property-type"
	OpSetProperty                = "set-property"
	OpProperty                   = "get-property"
	OpRegisterProperty           = "register-property"
	OpPropertyIndices            = "get-property-indices"
	OpAddPropertyNotification    = "add-property-notification"
	OpRemovePropertyNotification = "remove-property-notification"
	OpRemoveNotifications        = "remove-property-notifications"
	OpNotificationTriggered      = "notification-triggered"
	OpDeleteNotification         = "delete-notification"
	OpRemoveConstraints          = "remove-constraints"
	OpRemoveConstraintsByTag     = "remove-constraints-by-tag"
)

// Status codes reported by the simulator.
const (
	CodeInvalidHandle int32 = iota + 1
	CodeInvalidIndex
	CodeReadOnly
	CodeTypeMismatch
	CodeInvalidArgument
)

func handleReleaser(lib Native) handlekit.Releaser {
	return statusReleaser(OpDeleteHandle, lib.DeleteHandle)
}

func objectReleaser(lib Native) handlekit.Releaser {
	return statusReleaser(OpReleaseObject, lib.ReleaseObject)
}

func notificationReleaser(lib Native) handlekit.Releaser {
	return statusReleaser(OpDeleteNotification, lib.DeleteNotification)
}

func statusReleaser(op string, fn func(handlekit.ID, *native.Status)) handlekit.Releaser {
	return handlekit.ReleaserFunc(func(_ context.Context, id handlekit.ID) error {
		return native.Do(op, func(st *native.Status) { fn(id, st) })
	})
}
