package booking

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Blocking statuses occupy the property's calendar.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

// BlockingStatuses is the set used by overlap queries.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed}

type SyncStatus string

const (
	SyncUnsynced  SyncStatus = "unsynced"
	SyncSynced    SyncStatus = "synced"
	SyncFailed    SyncStatus = "failed"
	SyncCancelled SyncStatus = "cancelled"
)

func (s SyncStatus) String() string {
	return string(s)
}

func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncUnsynced, SyncSynced, SyncFailed, SyncCancelled:
		return true
	default:
		return false
	}
}

// Actor tags who drove a transition.
type Actor string

const (
	ActorGuest          Actor = "guest"
	ActorOwner          Actor = "owner"
	ActorAdmin          Actor = "admin"
	ActorSystem         Actor = "system"
	ActorChannelManager Actor = "channel_manager"
)

func (a Actor) String() string {
	return string(a)
}

func (a Actor) IsValid() bool {
	switch a {
	case ActorGuest, ActorOwner, ActorAdmin, ActorSystem, ActorChannelManager:
		return true
	default:
		return false
	}
}

// Event names the notification emitted after a transition.
type Event string

const (
	EventRequested        Event = "booking.requested"
	EventConfirmed        Event = "booking.confirmed"
	EventRejected         Event = "booking.rejected"
	EventCancelled        Event = "booking.cancelled"
	EventCompleted        Event = "booking.completed"
	EventCheckinReminder  Event = "booking.checkin_reminder"
	EventCheckoutReminder Event = "booking.checkout_reminder"
)

func (e Event) String() string {
	return string(e)
}
