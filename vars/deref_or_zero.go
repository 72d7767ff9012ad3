package vars

// DerefOrZero dereferences optional configuration values.
func DerefOrZero[T any](ptr *T) (ret T) {
	if ptr != nil {
		ret = *ptr
	}
	return
}

// DerefOr dereferences ptr or returns def when ptr is nil.
func DerefOr[T any](ptr *T, def T) T {
	if ptr == nil {
		return def
	}
	return *ptr
}
