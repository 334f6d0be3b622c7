package model

// Ptr returns a pointer to v, for building partial Data payloads
func Ptr[T any](v T) *T {
	return &v
}
