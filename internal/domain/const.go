package domain

// EventType is the kind of change carried on the signal channels.
type EventType string

const (
	EventItemAdded    EventType = "item.added"
	EventItemRemoved  EventType = "item.removed"
	EventNotification EventType = "notification.posted"
	EventIssue        EventType = "issue.reported"
)

const (
	MenuChannelPrefix   = "messboard:menu:"
	NotificationChannel = "messboard:notifications"
	IssueChannel        = "messboard:issues"
)

// MenuChannel is the pub/sub channel carrying events of one hostel.
func MenuChannel(h Hostel) string {
	return MenuChannelPrefix + string(h)
}
