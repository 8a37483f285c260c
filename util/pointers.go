package util

// Ptr returns a pointer to v. Optional model fields are pointers so absent
// and zero values stay distinguishable on the wire; Ptr keeps literals
// readable at call sites.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the value p points to, or T's zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
