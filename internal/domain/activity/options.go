package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	IntersectionID *int64
	Type           *Type
	Limit          int
	Offset         int
}
