package scene

import (
	"go.uber.org/zap"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/handle"
	"github.com/wippyai/handlekit/native"
)

// Animatable is a scene-graph object whose properties can be read, written,
// registered at runtime and observed with notifications.
type Animatable struct {
	lib Native
	h   *handle.Handle
}

// New allocates a new native object.
func New(lib Native, opts ...handle.Option) (*Animatable, error) {
	id, err := native.Call(OpNewHandle, lib.NewHandle)
	if err != nil {
		logFailure(OpNewHandle, err)
		return nil, err
	}
	return wrap(lib, id, true, opts)
}

// Wrap takes an identifier returned by another native call. When owns is
// false the returned object never releases either layer.
func Wrap(lib Native, id handlekit.ID, owns bool, opts ...handle.Option) (*Animatable, error) {
	return wrap(lib, id, owns, opts)
}

func wrap(lib Native, id handlekit.ID, owns bool, opts []handle.Option) (*Animatable, error) {
	objID, err := native.Call(OpUpcast, func(st *native.Status) handlekit.ID {
		return lib.Upcast(id, st)
	})
	if err != nil {
		logFailure(OpUpcast, err)
		if owns {
			_ = native.Do(OpDeleteHandle, func(st *native.Status) { lib.DeleteHandle(id, st) })
		}
		return nil, err
	}

	objectOpts := append([]handle.Option{handle.WithName("scene.object")}, opts...)
	object := handle.New(objectReleaser(lib), objID, owns, objectOpts...)

	handleOpts := append([]handle.Option{handle.WithName("scene.animatable")}, opts...)
	handleOpts = append(handleOpts, handle.WithBase(object))

	return &Animatable{
		lib: lib,
		h:   handle.New(handleReleaser(lib), id, owns, handleOpts...),
	}, nil
}

// siblingOpts are the options for handles created from a: they share its
// scheduler but never its base layers.
func (a *Animatable) siblingOpts() []handle.Option {
	return []handle.Option{handle.WithScheduler(a.h.Scheduler())}
}

// Copy returns a new owned handle to the same object.
func (a *Animatable) Copy() (*Animatable, error) {
	id, err := call(a, OpCopyHandle, a.lib.CopyHandle)
	if err != nil {
		return nil, err
	}
	return wrap(a.lib, id, true, a.siblingOpts())
}

// ID returns the handle layer identifier, or handlekit.Null once disposed.
func (a *Animatable) ID() handlekit.ID {
	return a.h.ID()
}

// Disposed reports whether Dispose has released the object.
func (a *Animatable) Disposed() bool {
	return a.h.Disposed()
}

// Dispose releases the handle layer and then the base object layer.
func (a *Animatable) Dispose() {
	a.h.Dispose()
}

// Supports reports whether the object has capability c.
func (a *Animatable) Supports(c Capability) (bool, error) {
	return call(a, OpSupports, func(id handlekit.ID, st *native.Status) bool {
		return a.lib.Supports(id, c, st)
	})
}

// PropertyCount returns the number of properties, registered ones included.
func (a *Animatable) PropertyCount() (uint32, error) {
	return call(a, OpPropertyCount, a.lib.PropertyCount)
}

// PropertyName returns the name of the property at index.
func (a *Animatable) PropertyName(index int32) (string, error) {
	return call(a, OpPropertyName, func(id handlekit.ID, st *native.Status) string {
		return a.lib.PropertyName(id, index, st)
	})
}

// PropertyIndex returns InvalidIndex when no property has that name.
func (a *Animatable) PropertyIndex(name string) (int32, error) {
	return call(a, OpPropertyIndex, func(id handlekit.ID, st *native.Status) int32 {
		return a.lib.PropertyIndex(id, name, st)
	})
}

// IsPropertyWritable reports whether SetProperty may change the property.
func (a *Animatable) IsPropertyWritable(index int32) (bool, error) {
	return call(a, OpIsPropertyWritable, func(id handlekit.ID, st *native.Status) bool {
		return a.lib.IsPropertyWritable(id, index, st)
	})
}

// IsPropertyAnimatable reports whether the property can be animated.
func (a *Animatable) IsPropertyAnimatable(index int32) (bool, error) {
	return call(a, OpIsPropertyAnimatable, func(id handlekit.ID, st *native.Status) bool {
		return a.lib.IsPropertyAnimatable(id, index, st)
	})
}

// IsPropertyAConstraintInput reports whether the property can feed a constraint.
func (a *Animatable) IsPropertyAConstraintInput(index int32) (bool, error) {
	return call(a, OpIsPropertyAConstraintInput, func(id handlekit.ID, st *native.Status) bool {
		return a.lib.IsPropertyAConstraintInput(id, index, st)
	})
}

// PropertyType returns the value type of the property at index.
func (a *Animatable) PropertyType(index int32) (PropertyType, error) {
	return call(a, OpPropertyType, func(id handlekit.ID, st *native.Status) PropertyType {
		return a.lib.PropertyType(id, index, st)
	})
}

// SetProperty writes v to the property at index.
func (a *Animatable) SetProperty(index int32, v Value) error {
	_, err := call(a, OpSetProperty, func(id handlekit.ID, st *native.Status) struct{} {
		a.lib.SetProperty(id, index, v, st)
		return struct{}{}
	})
	return err
}

// Property reads the current value of the property at index.
func (a *Animatable) Property(index int32) (Value, error) {
	return call(a, OpProperty, func(id handlekit.ID, st *native.Status) Value {
		return a.lib.Property(id, index, st)
	})
}

// RegisterProperty registers an animatable property, or updates the value
// of an existing property with the same name, and returns its index.
func (a *Animatable) RegisterProperty(name string, v Value) (int32, error) {
	return a.RegisterPropertyWithMode(name, v, Animated)
}

// RegisterPropertyWithMode registers a property with the given access mode.
func (a *Animatable) RegisterPropertyWithMode(name string, v Value, mode AccessMode) (int32, error) {
	return call(a, OpRegisterProperty, func(id handlekit.ID, st *native.Status) int32 {
		return a.lib.RegisterProperty(id, name, v, mode, st)
	})
}

// PropertyIndices lists the indices of all properties.
func (a *Animatable) PropertyIndices() ([]int32, error) {
	return call(a, OpPropertyIndices, a.lib.PropertyIndices)
}

// AddPropertyNotification observes the property at index. The caller owns
// the returned notification and must dispose it.
func (a *Animatable) AddPropertyNotification(index int32, cond Condition) (*PropertyNotification, error) {
	return a.AddComponentNotification(index, 0, cond)
}

// AddComponentNotification observes one component of a vector property.
func (a *Animatable) AddComponentNotification(index, component int32, cond Condition) (*PropertyNotification, error) {
	nid, err := call(a, OpAddPropertyNotification, func(id handlekit.ID, st *native.Status) handlekit.ID {
		return a.lib.AddPropertyNotification(id, index, component, cond, st)
	})
	if err != nil {
		return nil, err
	}

	opts := append([]handle.Option{handle.WithName("scene.notification")}, a.siblingOpts()...)
	return &PropertyNotification{
		lib:       a.lib,
		h:         handle.New(notificationReleaser(a.lib), nid, true, opts...),
		cond:      cond,
		index:     index,
		component: component,
	}, nil
}

// RemovePropertyNotification detaches n from this object. n stays valid
// until disposed.
func (a *Animatable) RemovePropertyNotification(n *PropertyNotification) error {
	return a.h.Use(func(id handlekit.ID) error {
		return n.h.Use(func(nid handlekit.ID) error {
			err := native.Do(OpRemovePropertyNotification, func(st *native.Status) {
				a.lib.RemovePropertyNotification(id, nid, st)
			})
			logFailure(OpRemovePropertyNotification, err)
			return err
		})
	})
}

// RemovePropertyNotifications detaches every notification from the object.
func (a *Animatable) RemovePropertyNotifications() error {
	return a.do(OpRemoveNotifications, a.lib.RemovePropertyNotifications)
}

// RemoveConstraints removes all constraints applied to the object.
func (a *Animatable) RemoveConstraints() error {
	return a.do(OpRemoveConstraints, a.lib.RemoveConstraints)
}

// RemoveConstraintsByTag removes the constraints carrying tag.
func (a *Animatable) RemoveConstraintsByTag(tag uint32) error {
	return a.do(OpRemoveConstraintsByTag, func(id handlekit.ID, st *native.Status) {
		a.lib.RemoveConstraintsByTag(id, tag, st)
	})
}

func (a *Animatable) do(op string, fn func(handlekit.ID, *native.Status)) error {
	_, err := call(a, op, func(id handlekit.ID, st *native.Status) struct{} {
		fn(id, st)
		return struct{}{}
	})
	return err
}

// call runs fn against the live handle layer identifier and surfaces the
// native status right after it returns.
func call[T any](a *Animatable, op string, fn func(handlekit.ID, *native.Status) T) (T, error) {
	var out T
	err := a.h.Use(func(id handlekit.ID) error {
		v, err := native.Call(op, func(st *native.Status) T { return fn(id, st) })
		out = v
		return err
	})
	logFailure(op, err)
	return out, err
}

func logFailure(op string, err error) {
	if err != nil {
		Logger().Debug("scene call failed", zap.String("op", op), zap.Error(err))
	}
}

// PropertyNotification observes a property of an Animatable.
type PropertyNotification struct {
	lib       Native
	h         *handle.Handle
	cond      Condition
	index     int32
	component int32
}

// Index returns the observed property index.
func (n *PropertyNotification) Index() int32 { return n.index }

// Component returns the observed vector component, 0 for the whole value.
func (n *PropertyNotification) Component() int32 { return n.component }

// Condition returns the trigger condition.
func (n *PropertyNotification) Condition() Condition { return n.cond }

// ID returns the notification identifier, or handlekit.Null once disposed.
func (n *PropertyNotification) ID() handlekit.ID { return n.h.ID() }

// TriggerCount returns how many times the condition has triggered.
func (n *PropertyNotification) TriggerCount() (uint32, error) {
	var count uint32
	err := n.h.Use(func(nid handlekit.ID) error {
		var err error
		count, err = native.Call(OpNotificationTriggered, func(st *native.Status) uint32 {
			return n.lib.NotificationTriggered(nid, st)
		})
		return err
	})
	return count, err
}

// Dispose releases the notification.
func (n *PropertyNotification) Dispose() {
	n.h.Dispose()
}
