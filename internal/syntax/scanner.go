package syntax

// scanner splits source text into tokens. It never fails: characters it
// does not recognise come back as tILLEGAL and the parser reports them.
type scanner struct {
	src []byte
	off int

	// afterDot makes the next number scan as a bare integer so that
	// `t.0.1` is two tuple projections rather than a float.
	afterDot bool
}

type scanned struct {
	kind tokKind
	lit  string
	off  int
}

func isLetter(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func (s *scanner) peekAt(i int) byte {
	if s.off+i < len(s.src) {
		return s.src[s.off+i]
	}
	return 0
}

func (s *scanner) skipSpace() {
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.off++
		case c == '/' && s.peekAt(1) == '/':
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.off++
			}
		default:
			return
		}
	}
}

func (s *scanner) scan() scanned {
	s.skipSpace()
	afterDot := s.afterDot
	s.afterDot = false

	start := s.off
	if s.off >= len(s.src) {
		return scanned{kind: tEOF, off: start}
	}

	c := s.src[s.off]
	switch {
	case isLetter(c):
		for s.off < len(s.src) && (isLetter(s.src[s.off]) || isDigit(s.src[s.off])) {
			s.off++
		}
		word := string(s.src[start:s.off])
		if kw, ok := keywords[word]; ok {
			return scanned{kind: kw, lit: word, off: start}
		}
		return scanned{kind: tIDENT, lit: word, off: start}

	case isDigit(c):
		return s.scanNumber(afterDot)
	}

	s.off++
	kind := tILLEGAL
	switch c {
	case '(':
		kind = tLPAREN
	case ')':
		kind = tRPAREN
	case '{':
		kind = tLBRACE
	case '}':
		kind = tRBRACE
	case '[':
		kind = tLBRACK
	case ']':
		kind = tRBRACK
	case ',':
		kind = tCOMMA
	case ';':
		kind = tSEMI
	case ':':
		kind = tCOLON
	case '.':
		kind = tDOT
		s.afterDot = true
	case '+':
		kind = tADD
	case '/':
		kind = tDIV
	case '%':
		kind = tREM
	case '^':
		kind = tXOR
	case '*':
		kind = s.choose('*', tPOW, tMUL)
	case '=':
		kind = s.choose('=', tEQ, tASSIGN)
	case '!':
		kind = s.choose('=', tNE, tNOT)
	case '|':
		kind = s.choose('|', tOROR, tOR)
	case '&':
		kind = s.choose('&', tANDAND, tAND)
	case '-':
		switch s.peekAt(0) {
		case '>':
			s.off++
			kind = tARROW
		case '<':
			s.off++
			kind = tFEED
		default:
			kind = tSUB
		}
	case '<':
		switch s.peekAt(0) {
		case '-':
			s.off++
			kind = tLARROW
		case '=':
			s.off++
			kind = tLE
		case '<':
			s.off++
			kind = tSHL
		default:
			kind = tLT
		}
	case '>':
		switch s.peekAt(0) {
		case '=':
			s.off++
			kind = tGE
		case '>':
			s.off++
			kind = tSHR
		default:
			kind = tGT
		}
	}
	return scanned{kind: kind, lit: string(s.src[start:s.off]), off: start}
}

// choose consumes next and returns yes when it follows, no otherwise.
func (s *scanner) choose(next byte, yes, no tokKind) tokKind {
	if s.peekAt(0) == next {
		s.off++
		return yes
	}
	return no
}

func (s *scanner) scanNumber(intOnly bool) scanned {
	start := s.off
	if s.src[s.off] == '0' && (s.peekAt(1) == 'x' || s.peekAt(1) == 'X') && isHex(s.peekAt(2)) {
		s.off += 2
		for s.off < len(s.src) && (isHex(s.src[s.off]) || s.src[s.off] == '_') {
			s.off++
		}
		return scanned{kind: tINT, lit: string(s.src[start:s.off]), off: start}
	}

	s.digits()
	if intOnly {
		return scanned{kind: tINT, lit: string(s.src[start:s.off]), off: start}
	}

	kind := tINT
	if s.peekAt(0) == '.' && isDigit(s.peekAt(1)) {
		s.off++
		s.digits()
		kind = tFLOAT
	}
	if e := s.peekAt(0); e == 'e' || e == 'E' {
		i := 1
		if sign := s.peekAt(1); sign == '+' || sign == '-' {
			i = 2
		}
		if isDigit(s.peekAt(i)) {
			s.off += i
			s.digits()
			kind = tFLOAT
		}
	}
	return scanned{kind: kind, lit: string(s.src[start:s.off]), off: start}
}

func (s *scanner) digits() {
	for s.off < len(s.src) && (isDigit(s.src[s.off]) || s.src[s.off] == '_') {
		s.off++
	}
}
