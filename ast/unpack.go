package ast

// Isa reports whether e's concrete type is T, a discriminated-union
// accessor over the Expr sum type (§4.2).
func Isa[T Expr](e Expr) bool {
	_, ok := e.(T)
	return ok
}

// Unpack returns e narrowed to T and whether the narrowing succeeded.
func Unpack[T Expr](e Expr) (T, bool) {
	v, ok := e.(T)
	return v, ok
}
