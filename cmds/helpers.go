package cmds

// Var defines "name <value>" on the global executor. "name." resets the
// variable to its zero value.
func Var[T any](name string, desc string) *T {
	var value T
	Define(name, Func(func(v T) {
		value = v
	}).Args("value").Desc(desc))
	var zero T
	Define(name+".", Func(func() {
		value = zero
	}).Desc("reset " + name))
	return &value
}

// Switch defines "name" to turn the flag on and "!name" to turn it off.
func Switch(name string, desc string) *bool {
	var value bool
	Define(name, Func(func() {
		value = true
	}).Desc(desc))
	Define("!"+name, Func(func() {
		value = false
	}).Desc("disable " + name))
	return &value
}

// Collect defines "name <value>", appending on every occurrence.
func Collect[T any](name string, desc string) *[]T {
	var value []T
	Define(name, Func(func(v T) {
		value = append(value, v)
	}).Args("value").Desc(desc))
	return &value
}
