package store

import (
	"testing"

	"github.com/roach88/tickflow/internal/ir"
)

func TestMarshalObject(t *testing.T) {
	tests := []struct {
		name string
		obj  ir.IRObject
		want string
	}{
		{"nil", nil, "{}"},
		{"empty", ir.IRObject{}, "{}"},
		{"sorted keys", ir.IRObject{"b": ir.IRInt(2), "a": ir.IRBool(true)}, `{"a":true,"b":2}`},
		{"nested", ir.IRObject{"p": ir.IRArray{ir.IRInt(1), ir.IRFloat(0.5)}}, `{"p":[1,0.5]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := marshalObject("inputs", tt.obj)
			if err != nil {
				t.Fatalf("marshalObject() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("marshalObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalObject_LargeInt(t *testing.T) {
	obj, err := unmarshalObject("outputs", `{"n":9007199254740993}`)
	if err != nil {
		t.Fatalf("unmarshalObject() failed: %v", err)
	}
	if obj["n"] != ir.IRInt(9007199254740993) {
		t.Errorf("n = %v, want exact 9007199254740993", obj["n"])
	}
}

func TestUnmarshalObject_Errors(t *testing.T) {
	obj, err := unmarshalObject("args", "")
	if err != nil || len(obj) != 0 {
		t.Errorf("empty text = %v, %v; want empty object", obj, err)
	}

	_, err = unmarshalObject("args", "[1,2]")
	if err == nil {
		t.Fatal("expected error for non-object JSON")
	}
}
