package respond

import "time"

type NotificationItem struct {
	NotificationId string    `json:"notification_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	RelatedTo      string    `json:"related_to"`
	RelatedId      int64     `json:"related_id"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type UnreadCountRespond struct {
	Unread int64 `json:"unread"`
}
