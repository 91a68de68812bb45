package syntax

import "fmt"

// tokKind is the lexical class of a token.
type tokKind uint8

const (
	tILLEGAL tokKind = iota
	tEOF

	tIDENT
	tINT
	tFLOAT

	// keywords
	tLET
	tFN
	tMOD
	tIF
	tTHEN
	tELSE
	tDELAY
	tAS
	tTRUE
	tFALSE

	// delimiters
	tLPAREN
	tRPAREN
	tLBRACE
	tRBRACE
	tLBRACK
	tRBRACK
	tCOMMA
	tSEMI
	tCOLON
	tDOT
	tASSIGN // =
	tARROW  // ->
	tLARROW // <-
	tFEED   // -<

	// operators
	tOROR
	tANDAND
	tEQ
	tNE
	tLT
	tLE
	tGT
	tGE
	tOR
	tXOR
	tAND
	tSHL
	tSHR
	tADD
	tSUB
	tMUL
	tDIV
	tREM
	tPOW
	tNOT
)

var keywords = map[string]tokKind{
	"let":   tLET,
	"fn":    tFN,
	"mod":   tMOD,
	"Mod":   tMOD,
	"if":    tIF,
	"then":  tTHEN,
	"else":  tELSE,
	"delay": tDELAY,
	"as":    tAS,
	"True":  tTRUE,
	"False": tFALSE,
}

var tokText = map[tokKind]string{
	tLPAREN:  "(",
	tRPAREN:  ")",
	tLBRACE:  "{",
	tRBRACE:  "}",
	tLBRACK:  "[",
	tRBRACK:  "]",
	tCOMMA:   ",",
	tSEMI:    ";",
	tCOLON:   ":",
	tDOT:     ".",
	tASSIGN:  "=",
	tARROW:   "->",
	tLARROW:  "<-",
	tFEED:    "-<",
	tOROR:    "||",
	tANDAND:  "&&",
	tEQ:      "==",
	tNE:      "!=",
	tLT:      "<",
	tLE:      "<=",
	tGT:      ">",
	tGE:      ">=",
	tOR:      "|",
	tXOR:     "^",
	tAND:     "&",
	tSHL:     "<<",
	tSHR:     ">>",
	tADD:     "+",
	tSUB:     "-",
	tMUL:     "*",
	tDIV:     "/",
	tREM:     "%",
	tPOW:     "**",
	tNOT:     "!",
}

func (k tokKind) String() string {
	switch k {
	case tILLEGAL:
		return "illegal character"
	case tEOF:
		return "end of file"
	case tIDENT:
		return "identifier"
	case tINT:
		return "integer literal"
	case tFLOAT:
		return "float literal"
	}
	for word, kw := range keywords {
		if kw == k && word != "Mod" {
			return "`" + word + "`"
		}
	}
	if s, ok := tokText[k]; ok {
		return "`" + s + "`"
	}
	return fmt.Sprintf("token(%d)", k)
}
