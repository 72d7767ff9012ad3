package configs

import (
	"errors"
)

// First decodes the first value at path. A missing value yields the zero T;
// any other failure panics, as configuration errors are not recoverable.
func First[T any](loader Loader, path string) T {
	var value T
	if err := loader.AssignFirst(path, &value); err != nil {
		if errors.Is(err, ErrValueNotFound) {
			return value
		}
		panic(err)
	}
	return value
}
