package user

// AssignManagerDTO repoints a user's reports_to reference; null detaches
// the user from their manager.
type AssignManagerDTO struct {
	ManagerID *int64 `json:"manager_id"`
}
