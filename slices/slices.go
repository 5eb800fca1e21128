package slices

func Find[T any](slice []T, f func(T) bool) (T, bool) {
	for _, item := range slice {
		if f(item) {
			return item, true
		}
	}

	return *new(T), false
}

// Index returns the position of the first item satisfying f, or -1.
func Index[T any](slice []T, f func(T) bool) int {
	for i, item := range slice {
		if f(item) {
			return i
		}
	}

	return -1
}

func Map[T, R any](slice []T, f func(T) R) []R {
	res := make([]R, 0, len(slice))
	for _, item := range slice {
		res = append(res, f(item))
	}

	return res
}
