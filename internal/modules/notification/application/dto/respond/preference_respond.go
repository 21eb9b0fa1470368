package respond

type PreferenceRespond struct {
	TaskAssignments bool `json:"task_assignments"`
	TaskOverdue     bool `json:"task_overdue"`
	TaskEscalations bool `json:"task_escalations"`
	OpportunityWon  bool `json:"opportunity_won"`
	Digest          bool `json:"digest"`
}
