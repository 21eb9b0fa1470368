package request

type ListNotificationRequest struct {
	UnreadOnly bool `form:"unread"`
	Limit      int  `form:"limit" binding:"omitempty,min=1,max=200"`
}
