// Copyright (c) 2026, The Stimline Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package factor

import (
	"fmt"
	"math"

	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// ValueKinds are the different kinds of level values a Variable can take.
type ValueKinds int

//go:generate stringer -type=ValueKinds

var KiT_ValueKinds = kit.Enums.AddEnum(ValueKindsN, kit.NotBitFlag, nil)

func (ev ValueKinds) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *ValueKinds) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

const (
	// Number is a scalar numeric level value
	Number ValueKinds = iota

	// Vector is a 2D vector level value (e.g., an x,y position offset)
	Vector

	// Symbol is a symbolic (string) level value
	Symbol

	ValueKindsN
)

// BlankSym is the symbolic value used for the blank placeholder condition.
const BlankSym = "blank"

// Value is one level value of a Variable: a scalar number, a 2D vector,
// or a symbol, tagged by Kind.  Values are compared exactly (no tolerance)
// because design levels are authored constants, not computed quantities.
type Value struct {

	// kind of value stored
	Kind ValueKinds `desc:"kind of value stored"`

	// scalar value, for Number kind
	Num float64 `desc:"scalar value, for Number kind"`

	// vector value, for Vector kind
	Vec mat32.Vec2 `desc:"vector value, for Vector kind"`

	// symbolic value, for Symbol kind
	Sym string `desc:"symbolic value, for Symbol kind"`
}

// Num returns a scalar numeric Value
func Num(v float64) Value {
	return Value{Kind: Number, Num: v}
}

// Vec returns a 2D vector Value
func Vec(x, y float32) Value {
	return Value{Kind: Vector, Vec: mat32.Vec2{X: x, Y: y}}
}

// Sym returns a symbolic Value
func Sym(s string) Value {
	return Value{Kind: Symbol, Sym: s}
}

// Blank returns the blank placeholder Value, assigned to the extra
// condition added when Model.AddBlank is set.
func Blank() Value {
	return Value{Kind: Symbol, Sym: BlankSym}
}

// IsBlank returns true if this is the blank placeholder value
func (vl Value) IsBlank() bool {
	return vl.Kind == Symbol && vl.Sym == BlankSym
}

// Equal returns true if the two values have the same kind and identical
// contents: exact numeric equality for Number and Vector, exact string
// match for Symbol.
func (vl Value) Equal(ov Value) bool {
	if vl.Kind != ov.Kind {
		return false
	}
	switch vl.Kind {
	case Number:
		return vl.Num == ov.Num
	case Vector:
		return vl.Vec == ov.Vec
	default:
		return vl.Sym == ov.Sym
	}
}

// Float returns the value as a float64 for tabular export: the scalar for
// Number, the X component for Vector, NaN for Symbol.
func (vl Value) Float() float64 {
	switch vl.Kind {
	case Number:
		return vl.Num
	case Vector:
		return float64(vl.Vec.X)
	default:
		return math.NaN()
	}
}

// String returns a compact human-readable rendering of the value
func (vl Value) String() string {
	switch vl.Kind {
	case Number:
		return fmt.Sprintf("%g", vl.Num)
	case Vector:
		return fmt.Sprintf("%g,%g", vl.Vec.X, vl.Vec.Y)
	default:
		return vl.Sym
	}
}
