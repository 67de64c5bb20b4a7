package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	CropID       string
	StageID      *string
	EventID      *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
