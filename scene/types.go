package scene

import (
	"fmt"
	"math"
)

// PropertyType is the type of a property value.
type PropertyType int32

const (
	PropertyNone PropertyType = iota
	PropertyBoolean
	PropertyFloat
	PropertyInteger
	PropertyVector2
	PropertyVector3
	PropertyVector4
	PropertyMatrix3
	PropertyMatrix
	PropertyRectangle
	PropertyRotation
	PropertyString
	PropertyArray
	PropertyMap
)

var propertyTypeNames = [...]string{
	"none", "boolean", "float", "integer", "vector2", "vector3", "vector4",
	"matrix3", "matrix", "rectangle", "rotation", "string", "array", "map",
}

func (t PropertyType) String() string {
	if t >= 0 && int(t) < len(propertyTypeNames) {
		return propertyTypeNames[t]
	}
	return fmt.Sprintf("PropertyType(%d)", int32(t))
}

// Animatable reports whether values of this type can be animated.
func (t PropertyType) Animatable() bool {
	switch t {
	case PropertyBoolean, PropertyFloat, PropertyInteger,
		PropertyVector2, PropertyVector3, PropertyVector4,
		PropertyMatrix3, PropertyMatrix, PropertyRotation:
		return true
	}
	return false
}

// AccessMode controls how a registered property may be changed.
type AccessMode int32

const (
	ReadOnly AccessMode = iota
	ReadWrite
	Animated
)

func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case Animated:
		return "animatable"
	default:
		return fmt.Sprintf("AccessMode(%d)", int32(m))
	}
}

// Capability is an optional object feature.
type Capability int32

const (
	// DynamicProperties means properties can be registered at runtime.
	DynamicProperties Capability = iota
)

// Property index ranges.
const (
	// InvalidIndex is returned by PropertyIndex for unknown names.
	InvalidIndex int32 = -1

	// CustomPropertyStartIndex is the index of the first registered property.
	CustomPropertyStartIndex int32 = 50000000
)

// Value is a property value.
type Value struct {
	s   string
	vec [4]float32
	i   int32
	typ PropertyType
	b   bool
}

// Value constructors.

func BoolValue(b bool) Value          { return Value{typ: PropertyBoolean, b: b} }
func FloatValue(f float32) Value      { return Value{typ: PropertyFloat, vec: [4]float32{f}} }
func IntValue(i int32) Value          { return Value{typ: PropertyInteger, i: i} }
func StringValue(s string) Value      { return Value{typ: PropertyString, s: s} }
func Vector2Value(x, y float32) Value { return Value{typ: PropertyVector2, vec: [4]float32{x, y}} }

func Vector3Value(x, y, z float32) Value {
	return Value{typ: PropertyVector3, vec: [4]float32{x, y, z}}
}

func Vector4Value(x, y, z, w float32) Value {
	return Value{typ: PropertyVector4, vec: [4]float32{x, y, z, w}}
}

// Type returns the value's type. The zero Value has type PropertyNone.
func (v Value) Type() PropertyType { return v.typ }

// AsBool returns the boolean and whether v holds one. The other As
// accessors follow the same form.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == PropertyBoolean }

func (v Value) AsFloat() (float32, bool) { return v.vec[0], v.typ == PropertyFloat }

func (v Value) AsInt() (int32, bool) { return v.i, v.typ == PropertyInteger }

func (v Value) AsString() (string, bool) { return v.s, v.typ == PropertyString }

// AsVector returns vector components; unused trailing components are zero.
func (v Value) AsVector() ([4]float32, bool) {
	switch v.typ {
	case PropertyVector2, PropertyVector3, PropertyVector4:
		return v.vec, true
	}
	return [4]float32{}, false
}

// Component returns a numeric component used by notification conditions.
// Scalars only have component 0.
func (v Value) Component(i int32) (float32, bool) {
	switch v.typ {
	case PropertyFloat:
		return v.vec[0], i == 0
	case PropertyInteger:
		return float32(v.i), i == 0
	case PropertyBoolean:
		if v.b {
			return 1, i == 0
		}
		return 0, i == 0
	case PropertyVector2:
		return v.vecComponent(i, 2)
	case PropertyVector3:
		return v.vecComponent(i, 3)
	case PropertyVector4:
		return v.vecComponent(i, 4)
	}
	return 0, false
}

func (v Value) vecComponent(i int32, n int32) (float32, bool) {
	if i < 0 || i >= n {
		return 0, false
	}
	return v.vec[i], true
}

func (v Value) String() string {
	switch v.typ {
	case PropertyBoolean:
		return fmt.Sprint(v.b)
	case PropertyFloat:
		return fmt.Sprint(v.vec[0])
	case PropertyInteger:
		return fmt.Sprint(v.i)
	case PropertyString:
		return fmt.Sprintf("%q", v.s)
	case PropertyVector2:
		return fmt.Sprint(v.vec[:2])
	case PropertyVector3:
		return fmt.Sprint(v.vec[:3])
	case PropertyVector4:
		return fmt.Sprint(v.vec[:])
	default:
		return v.typ.String()
	}
}

// ConditionKind selects how a notification condition evaluates a value.
type ConditionKind int32

const (
	ConditionFalse ConditionKind = iota
	ConditionGreaterThan
	ConditionLessThan
	ConditionInside
	ConditionOutside
	ConditionStep
)

// Condition decides when a property notification triggers.
type Condition struct {
	Args []float32
	Kind ConditionKind
}

// GreaterThan triggers when the value rises above arg.
func GreaterThan(arg float32) Condition {
	return Condition{Kind: ConditionGreaterThan, Args: []float32{arg}}
}

// LessThan triggers when the value drops below arg.
func LessThan(arg float32) Condition {
	return Condition{Kind: ConditionLessThan, Args: []float32{arg}}
}

// Inside triggers when the value enters [lo, hi].
func Inside(lo, hi float32) Condition {
	return Condition{Kind: ConditionInside, Args: []float32{lo, hi}}
}

// Outside triggers when the value leaves [lo, hi].
func Outside(lo, hi float32) Condition {
	return Condition{Kind: ConditionOutside, Args: []float32{lo, hi}}
}

// Step triggers each time the value crosses a multiple of step from initial.
func Step(step, initial float32) Condition {
	return Condition{Kind: ConditionStep, Args: []float32{step, initial}}
}

// Valid reports whether the condition has the arguments its kind needs.
func (c Condition) Valid() bool {
	switch c.Kind {
	case ConditionFalse:
		return true
	case ConditionGreaterThan, ConditionLessThan:
		return len(c.Args) == 1
	case ConditionInside, ConditionOutside:
		return len(c.Args) == 2 && c.Args[0] <= c.Args[1]
	case ConditionStep:
		return len(c.Args) == 2 && c.Args[0] > 0
	}
	return false
}

// Holds reports whether x satisfies a level condition. Step conditions
// never hold; use Crossed.
func (c Condition) Holds(x float32) bool {
	switch c.Kind {
	case ConditionGreaterThan:
		return x > c.Args[0]
	case ConditionLessThan:
		return x < c.Args[0]
	case ConditionInside:
		return x >= c.Args[0] && x <= c.Args[1]
	case ConditionOutside:
		return x < c.Args[0] || x > c.Args[1]
	}
	return false
}

// Crossed reports whether moving from prev to x crosses a step boundary.
func (c Condition) Crossed(prev, x float32) bool {
	if c.Kind != ConditionStep {
		return false
	}
	step, initial := c.Args[0], c.Args[1]
	return math.Floor(float64((prev-initial)/step)) != math.Floor(float64((x-initial)/step))
}
