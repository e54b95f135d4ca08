package coordinator

// NotificationKind classifies user-facing notifications emitted by the
// coordinator. The UI layer decides how each kind is rendered.
type NotificationKind string

const (
	NotifyPermissionRequested NotificationKind = "permission_requested"
	NotifyQuestionAsked       NotificationKind = "question_asked"
	NotifyOverflowChoice      NotificationKind = "overflow_choice"
	NotifyUntilDoneCapped     NotificationKind = "until_done_capped"
	NotifyUntilDoneComplete   NotificationKind = "until_done_complete"
	NotifySubagent            NotificationKind = "subagent"
	NotifyConnectivityLost    NotificationKind = "connectivity_lost"
	NotifyTurnFailed          NotificationKind = "turn_failed"
)

// Notification is a user-facing signal about a session.
type Notification struct {
	Kind      NotificationKind
	SessionID string
	RequestID string
	Message   string
}

// Notifier receives notifications. Implementations must not call back into
// the coordinator synchronously.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }
