package scene

import (
	"context"
	"fmt"
	"sync"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/native"
)

// Simulator is an in-memory scene-graph library. Handles, objects and
// notifications each live in their own native.Local table, so tests can see
// exactly which identifiers are still issued.
type Simulator struct {
	handles       *native.Local // *handleRec
	objects       *native.Local // *object
	notifications *native.Local // *notification
	mu            sync.Mutex    // guards object contents
}

type handleRec struct {
	obj *object
}

type object struct {
	byName        map[string]int
	props         []property
	notifications []*notification
	constraints   []constraint
	id            handlekit.ID
	refs          int
}

type property struct {
	name  string
	value Value
	mode  AccessMode
}

type constraint struct {
	index int32
	tag   uint32
}

type notification struct {
	target    *object
	cond      Condition
	index     int32
	component int32
	triggered uint32
	last      float32
	holds     bool
	attached  bool
}

// SimulatorStats reports the per-table counters.
type SimulatorStats struct {
	Handles       native.Stats
	Objects       native.Stats
	Notifications native.Stats
}

var _ Native = (*Simulator)(nil)

// NewSimulator creates an empty scene graph.
func NewSimulator() *Simulator {
	return &Simulator{
		handles:       native.NewLocal(),
		objects:       native.NewLocal(),
		notifications: native.NewLocal(),
	}
}

// FailNext makes the next call of op fail with code and msg.
func (s *Simulator) FailNext(op string, code int32, msg string) {
	s.handles.FailNext(op, code, msg)
}

// Stats returns the table counters.
func (s *Simulator) Stats() SimulatorStats {
	return SimulatorStats{
		Handles:       s.handles.Stats(),
		Objects:       s.objects.Stats(),
		Notifications: s.notifications.Stats(),
	}
}

// AddConstraint attaches a constraint to the property at index. Constraints
// are created by native code; this stands in for it.
func (s *Simulator) AddConstraint(id handlekit.ID, index int32, tag uint32) error {
	return native.Do("add-constraint", func(st *native.Status) {
		s.withProperty(id, index, st, func(obj *object, _ *property) {
			obj.constraints = append(obj.constraints, constraint{index: index, tag: tag})
		})
	})
}

// Constraints returns the number of constraints on the object behind id.
func (s *Simulator) Constraints(id handlekit.ID) int {
	n := 0
	s.withObject("constraints", id, &native.Status{}, func(obj *object) {
		n = len(obj.constraints)
	})
	return n
}

func (s *Simulator) NewHandle(st *native.Status) handlekit.ID {
	if s.handles.Inject(OpNewHandle, st) {
		return handlekit.Null
	}

	obj := &object{byName: make(map[string]int), refs: 1}
	objID, err := s.objects.CreateValue(context.Background(), obj)
	if err != nil {
		st.Fail(CodeInvalidArgument, err.Error())
		return handlekit.Null
	}
	obj.id = objID

	id, err := s.handles.CreateValue(context.Background(), &handleRec{obj: obj})
	if err != nil {
		_ = s.objects.Release(context.Background(), objID)
		st.Fail(CodeInvalidArgument, err.Error())
		return handlekit.Null
	}
	return id
}

func (s *Simulator) CopyHandle(id handlekit.ID, st *native.Status) handlekit.ID {
	var obj *object
	s.withObject(OpCopyHandle, id, st, func(o *object) {
		o.refs++
		obj = o
	})
	if st.Pending() {
		return handlekit.Null
	}

	cp, err := s.handles.CreateValue(context.Background(), &handleRec{obj: obj})
	if err != nil {
		s.mu.Lock()
		obj.refs--
		s.mu.Unlock()
		st.Fail(CodeInvalidArgument, err.Error())
		return handlekit.Null
	}
	return cp
}

func (s *Simulator) Upcast(id handlekit.ID, st *native.Status) handlekit.ID {
	var objID handlekit.ID
	s.withObject(OpUpcast, id, st, func(o *object) { objID = o.id })
	return objID
}

func (s *Simulator) DeleteHandle(id handlekit.ID, st *native.Status) {
	if s.handles.Inject(OpDeleteHandle, st) {
		return
	}
	if err := s.handles.Release(context.Background(), id); err != nil {
		st.Fail(CodeInvalidHandle, err.Error())
	}
}

func (s *Simulator) ReleaseObject(objID handlekit.ID, st *native.Status) {
	if s.handles.Inject(OpReleaseObject, st) {
		return
	}
	v, ok := s.objects.Value(objID)
	if !ok {
		st.Fail(CodeInvalidHandle, fmt.Sprintf("unknown object %d", objID))
		return
	}
	obj := v.(*object)

	s.mu.Lock()
	obj.refs--
	last := obj.refs == 0
	if last {
		for _, n := range obj.notifications {
			n.attached = false
		}
		obj.notifications = nil
		obj.constraints = nil
	}
	s.mu.Unlock()

	if last {
		if err := s.objects.Release(context.Background(), objID); err != nil {
			st.Fail(CodeInvalidHandle, err.Error())
		}
	}
}

func (s *Simulator) Supports(id handlekit.ID, c Capability, st *native.Status) bool {
	var ok bool
	s.withObject(OpSupports, id, st, func(*object) { ok = c == DynamicProperties })
	return ok
}

func (s *Simulator) PropertyCount(id handlekit.ID, st *native.Status) uint32 {
	var n uint32
	s.withObject(OpPropertyCount, id, st, func(o *object) { n = uint32(len(o.props)) })
	return n
}

func (s *Simulator) PropertyName(id handlekit.ID, index int32, st *native.Status) string {
	var name string
	s.withPropertyOp(OpPropertyName, id, index, st, func(_ *object, p *property) { name = p.name })
	return name
}

func (s *Simulator) PropertyIndex(id handlekit.ID, name string, st *native.Status) int32 {
	index := InvalidIndex
	s.withObject(OpPropertyIndex, id, st, func(o *object) {
		if i, ok := o.byName[name]; ok {
			index = CustomPropertyStartIndex + int32(i)
		}
	})
	return index
}

func (s *Simulator) IsPropertyWritable(id handlekit.ID, index int32, st *native.Status) bool {
	var ok bool
	s.withPropertyOp(OpIsPropertyWritable, id, index, st, func(_ *object, p *property) {
		ok = p.mode != ReadOnly
	})
	return ok
}

func (s *Simulator) IsPropertyAnimatable(id handlekit.ID, index int32, st *native.Status) bool {
	var ok bool
	s.withPropertyOp(OpIsPropertyAnimatable, id, index, st, func(_ *object, p *property) {
		ok = p.mode == Animated
	})
	return ok
}

func (s *Simulator) IsPropertyAConstraintInput(id handlekit.ID, index int32, st *native.Status) bool {
	var ok bool
	s.withPropertyOp(OpIsPropertyAConstraintInput, id, index, st, func(_ *object, p *property) {
		ok = p.mode == Animated || p.value.Type().Animatable()
	})
	return ok
}

func (s *Simulator) PropertyType(id handlekit.ID, index int32, st *native.Status) PropertyType {
	t := PropertyNone
	s.withPropertyOp(OpPropertyType, id, index, st, func(_ *object, p *property) { t = p.value.Type() })
	return t
}

func (s *Simulator) SetProperty(id handlekit.ID, index int32, v Value, st *native.Status) {
	s.withPropertyOp(OpSetProperty, id, index, st, func(obj *object, p *property) {
		switch {
		case p.mode == ReadOnly:
			st.Fail(CodeReadOnly, fmt.Sprintf("property %q is read-only", p.name))
		case v.Type() != p.value.Type():
			st.Fail(CodeTypeMismatch, fmt.Sprintf("property %q is %s, got %s", p.name, p.value.Type(), v.Type()))
		default:
			p.value = v
			obj.notify(index, v)
		}
	})
}

func (s *Simulator) Property(id handlekit.ID, index int32, st *native.Status) Value {
	var v Value
	s.withPropertyOp(OpProperty, id, index, st, func(_ *object, p *property) { v = p.value })
	return v
}

func (s *Simulator) RegisterProperty(id handlekit.ID, name string, v Value, mode AccessMode, st *native.Status) int32 {
	index := InvalidIndex
	s.withObject(OpRegisterProperty, id, st, func(o *object) {
		if name == "" || v.Type() == PropertyNone {
			st.Fail(CodeInvalidArgument, "property needs a name and a value")
			return
		}
		if mode < ReadOnly || mode > Animated {
			st.Fail(CodeInvalidArgument, fmt.Sprintf("invalid access mode %d", mode))
			return
		}
		// Values that cannot animate are registered as plain read-write.
		if mode == Animated && !v.Type().Animatable() {
			mode = ReadWrite
		}

		if i, ok := o.byName[name]; ok {
			o.props[i].value = v
			index = CustomPropertyStartIndex + int32(i)
			return
		}
		o.props = append(o.props, property{name: name, value: v, mode: mode})
		o.byName[name] = len(o.props) - 1
		index = CustomPropertyStartIndex + int32(len(o.props)-1)
	})
	return index
}

func (s *Simulator) PropertyIndices(id handlekit.ID, st *native.Status) []int32 {
	var indices []int32
	s.withObject(OpPropertyIndices, id, st, func(o *object) {
		indices = make([]int32, len(o.props))
		for i := range o.props {
			indices[i] = CustomPropertyStartIndex + int32(i)
		}
	})
	return indices
}

func (s *Simulator) AddPropertyNotification(id handlekit.ID, index, component int32, cond Condition, st *native.Status) handlekit.ID {
	var n *notification
	s.withPropertyOp(OpAddPropertyNotification, id, index, st, func(obj *object, p *property) {
		if !cond.Valid() {
			st.Fail(CodeInvalidArgument, "invalid condition")
			return
		}
		x, ok := p.value.Component(component)
		if !ok {
			st.Fail(CodeInvalidArgument, fmt.Sprintf("property %q has no component %d", p.name, component))
			return
		}
		n = &notification{
			target:    obj,
			cond:      cond,
			index:     index,
			component: component,
			last:      x,
			holds:     cond.Holds(x),
			attached:  true,
		}
		obj.notifications = append(obj.notifications, n)
	})
	if st.Pending() {
		return handlekit.Null
	}

	nid, err := s.notifications.CreateValue(context.Background(), n)
	if err != nil {
		s.mu.Lock()
		n.target.detach(n)
		s.mu.Unlock()
		st.Fail(CodeInvalidArgument, err.Error())
		return handlekit.Null
	}
	return nid
}

func (s *Simulator) RemovePropertyNotification(id, nid handlekit.ID, st *native.Status) {
	v, ok := s.notifications.Value(nid)
	if !ok {
		st.Fail(CodeInvalidHandle, fmt.Sprintf("unknown notification %d", nid))
		return
	}
	n := v.(*notification)
	s.withObject(OpRemovePropertyNotification, id, st, func(o *object) {
		if n.target == o {
			o.detach(n)
		}
	})
}

func (s *Simulator) RemovePropertyNotifications(id handlekit.ID, st *native.Status) {
	s.withObject(OpRemoveNotifications, id, st, func(o *object) {
		for _, n := range o.notifications {
			n.attached = false
		}
		o.notifications = nil
	})
}

func (s *Simulator) NotificationTriggered(nid handlekit.ID, st *native.Status) uint32 {
	if s.handles.Inject(OpNotificationTriggered, st) {
		return 0
	}
	v, ok := s.notifications.Value(nid)
	if !ok {
		st.Fail(CodeInvalidHandle, fmt.Sprintf("unknown notification %d", nid))
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return v.(*notification).triggered
}

func (s *Simulator) DeleteNotification(nid handlekit.ID, st *native.Status) {
	if s.handles.Inject(OpDeleteNotification, st) {
		return
	}
	v, ok := s.notifications.Value(nid)
	if ok {
		n := v.(*notification)
		s.mu.Lock()
		if n.attached {
			n.target.detach(n)
		}
		s.mu.Unlock()
	}
	if err := s.notifications.Release(context.Background(), nid); err != nil {
		st.Fail(CodeInvalidHandle, err.Error())
	}
}

func (s *Simulator) RemoveConstraints(id handlekit.ID, st *native.Status) {
	s.withObject(OpRemoveConstraints, id, st, func(o *object) { o.constraints = nil })
}

func (s *Simulator) RemoveConstraintsByTag(id handlekit.ID, tag uint32, st *native.Status) {
	s.withObject(OpRemoveConstraintsByTag, id, st, func(o *object) {
		kept := o.constraints[:0]
		for _, c := range o.constraints {
			if c.tag != tag {
				kept = append(kept, c)
			}
		}
		o.constraints = kept
	})
}

func (s *Simulator) withObject(op string, id handlekit.ID, st *native.Status, fn func(*object)) {
	if s.handles.Inject(op, st) {
		return
	}
	v, ok := s.handles.Value(id)
	if !ok {
		st.Fail(CodeInvalidHandle, fmt.Sprintf("unknown handle %d", id))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fn(v.(*handleRec).obj)
}

func (s *Simulator) withPropertyOp(op string, id handlekit.ID, index int32, st *native.Status, fn func(*object, *property)) {
	s.withObject(op, id, st, func(o *object) {
		p := o.property(index)
		if p == nil {
			st.Fail(CodeInvalidIndex, fmt.Sprintf("no property at index %d", index))
			return
		}
		fn(o, p)
	})
}

func (s *Simulator) withProperty(id handlekit.ID, index int32, st *native.Status, fn func(*object, *property)) {
	s.withPropertyOp("", id, index, st, fn)
}

func (o *object) property(index int32) *property {
	i := index - CustomPropertyStartIndex
	if i < 0 || int(i) >= len(o.props) {
		return nil
	}
	return &o.props[i]
}

func (o *object) detach(n *notification) {
	n.attached = false
	for i, m := range o.notifications {
		if m == n {
			o.notifications = append(o.notifications[:i], o.notifications[i+1:]...)
			return
		}
	}
}

// notify evaluates notifications on the property at index after a change.
// Level conditions trigger when they start to hold.
func (o *object) notify(index int32, v Value) {
	for _, n := range o.notifications {
		if n.index != index {
			continue
		}
		x, ok := v.Component(n.component)
		if !ok {
			continue
		}
		if n.cond.Kind == ConditionStep {
			if n.cond.Crossed(n.last, x) {
				n.triggered++
			}
		} else {
			holds := n.cond.Holds(x)
			if holds && !n.holds {
				n.triggered++
			}
			n.holds = holds
		}
		n.last = x
	}
}
