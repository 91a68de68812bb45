package ast

// Op is a unary or binary operator.
type Op uint8

const (
	OpInvalid Op = iota

	// unary
	OpNot // !
	OpNeg // -

	// binary
	OpOr     // ||
	OpAnd    // &&
	OpEq     // ==
	OpNe     // !=
	OpLt     // <
	OpLe     // <=
	OpGt     // >
	OpGe     // >=
	OpBitOr  // |
	OpBitXor // ^
	OpBitAnd // &
	OpShl    // <<
	OpShr    // >>
	OpAdd    // +
	OpSub    // -
	OpMul    // *
	OpDiv    // /
	OpRem    // %
	OpPow    // **
)

var opText = [...]string{
	OpInvalid: "?",
	OpNot:     "!",
	OpNeg:     "-",
	OpOr:      "||",
	OpAnd:     "&&",
	OpEq:      "==",
	OpNe:      "!=",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpBitOr:   "|",
	OpBitXor:  "^",
	OpBitAnd:  "&",
	OpShl:     "<<",
	OpShr:     ">>",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpRem:     "%",
	OpPow:     "**",
}

func (op Op) String() string {
	if int(op) < len(opText) {
		return opText[op]
	}
	return "?"
}

// Precedence levels for binary operators, lowest first. Cast covers both
// `as T` and the `: T` ascription.
const (
	PrecNone = iota
	PrecOr
	PrecAnd
	PrecCompare
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecShift
	PrecArith
	PrecTerm
	PrecPow
	PrecCast
)

// Precedence returns the binding strength of a binary operator, or PrecNone
// for operators that are not binary.
func (op Op) Precedence() int {
	switch op {
	case OpOr:
		return PrecOr
	case OpAnd:
		return PrecAnd
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return PrecCompare
	case OpBitOr:
		return PrecBitOr
	case OpBitXor:
		return PrecBitXor
	case OpBitAnd:
		return PrecBitAnd
	case OpShl, OpShr:
		return PrecShift
	case OpAdd, OpSub:
		return PrecArith
	case OpMul, OpDiv, OpRem:
		return PrecTerm
	case OpPow:
		return PrecPow
	}
	return PrecNone
}

// RightAssoc reports whether the operator groups right to left.
func (op Op) RightAssoc() bool { return op == OpPow }
