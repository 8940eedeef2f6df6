package scene

import "testing"

func TestValue_Accessors(t *testing.T) {
	if v, ok := FloatValue(1.5).AsFloat(); !ok || v != 1.5 {
		t.Errorf("AsFloat = %v, %v", v, ok)
	}
	if _, ok := IntValue(1).AsFloat(); ok {
		t.Error("int value reported as float")
	}
	if v, ok := StringValue("x").AsString(); !ok || v != "x" {
		t.Errorf("AsString = %v, %v", v, ok)
	}
	if v, ok := BoolValue(true).AsBool(); !ok || !v {
		t.Errorf("AsBool = %v, %v", v, ok)
	}
	if v, ok := IntValue(-4).AsInt(); !ok || v != -4 {
		t.Errorf("AsInt = %v, %v", v, ok)
	}
	if (Value{}).Type() != PropertyNone {
		t.Error("zero value should have no type")
	}
}

func TestValue_Component(t *testing.T) {
	tests := []struct {
		name  string
		v     Value
		index int32
		want  float32
		ok    bool
	}{
		{"float", FloatValue(2), 0, 2, true},
		{"float component 1", FloatValue(2), 1, 0, false},
		{"int", IntValue(3), 0, 3, true},
		{"bool", BoolValue(true), 0, 1, true},
		{"vector3 z", Vector3Value(1, 2, 3), 2, 3, true},
		{"vector3 w", Vector3Value(1, 2, 3), 3, 0, false},
		{"vector4 w", Vector4Value(1, 2, 3, 4), 3, 4, true},
		{"string", StringValue("s"), 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.Component(tt.index)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Component(%d) = %v, %v; want %v, %v", tt.index, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCondition(t *testing.T) {
	if !GreaterThan(1).Holds(2) || GreaterThan(1).Holds(1) {
		t.Error("GreaterThan")
	}
	if !LessThan(1).Holds(0) {
		t.Error("LessThan")
	}
	if !Inside(1, 3).Holds(3) || Inside(1, 3).Holds(4) {
		t.Error("Inside")
	}
	if !Outside(1, 3).Holds(0) || Outside(1, 3).Holds(2) {
		t.Error("Outside")
	}
	if !Step(1, 0).Crossed(0.5, 1.5) || Step(1, 0).Crossed(0.2, 0.8) {
		t.Error("Step")
	}
	if Inside(3, 1).Valid() || Step(0, 0).Valid() || !GreaterThan(0).Valid() {
		t.Error("Valid")
	}
}

func TestTypeStrings(t *testing.T) {
	if PropertyVector3.String() != "vector3" {
		t.Errorf("PropertyVector3 = %q", PropertyVector3)
	}
	if PropertyType(99).String() != "PropertyType(99)" {
		t.Errorf("unknown = %q", PropertyType(99))
	}
	if Animated.String() != "animatable" {
		t.Errorf("Animated = %q", Animated)
	}
	if PropertyString.Animatable() || !PropertyFloat.Animatable() {
		t.Error("Animatable")
	}
	if Vector2Value(1, 2).String() != "[1 2]" {
		t.Errorf("Vector2 String = %q", Vector2Value(1, 2).String())
	}
}
