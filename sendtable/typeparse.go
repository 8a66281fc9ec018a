package sendtable

import "strconv"

// parsedType is the result of parsing a field's declared C-like type
// string (spec.md §4.5 step 4).
type parsedType struct {
	Base     string
	Param    string // generic parameter, e.g. the E in CUtlVector<E>
	ArrayLen int    // N in Base[N]; 0 if not an array
	IsVector bool   // CUtlVector<E> / CNetworkUtlVectorBase<E> / CUtlVectorEmbeddedNetworkVar<E>
	IsArray  bool   // Base[N]
	IsString bool   // char[N]
}

var vectorWrappers = map[string]bool{
	"CUtlVector":                     true,
	"CNetworkUtlVectorBase":          true,
	"CUtlVectorEmbeddedNetworkVar":   true,
}

func parseType(t string) parsedType {
	// Generic form: Base<Param>
	if lt := indexByte(t, '<'); lt >= 0 && t[len(t)-1] == '>' {
		base := t[:lt]
		param := t[lt+1 : len(t)-1]
		if vectorWrappers[base] {
			return parsedType{Base: base, Param: param, IsVector: true}
		}
		return parsedType{Base: base, Param: param}
	}

	// Array form: Base[N]
	if lb := indexByte(t, '['); lb >= 0 && t[len(t)-1] == ']' {
		base := t[:lb]
		n, err := strconv.Atoi(t[lb+1 : len(t)-1])
		if err != nil {
			n = 0
		}
		if base == "char" {
			return parsedType{Base: base, ArrayLen: n, IsString: true}
		}
		return parsedType{Base: base, ArrayLen: n, IsArray: true}
	}

	return parsedType{Base: t}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
