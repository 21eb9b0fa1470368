package request

// UpdatePreferenceRequest 未传的字段保持原值
type UpdatePreferenceRequest struct {
	TaskAssignments *bool `json:"task_assignments"`
	TaskOverdue     *bool `json:"task_overdue"`
	TaskEscalations *bool `json:"task_escalations"`
	OpportunityWon  *bool `json:"opportunity_won"`
	Digest          *bool `json:"digest"`
}
