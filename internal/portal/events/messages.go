package events

// Topics carried by the Bus.
const (
	TopicSession  = "portal.session"
	TopicToast    = "portal.toast"
	TopicNavigate = "portal.navigate"
	TopicHost     = "portal.host"
)

// AllTopics lists every topic, in the order the UI stream subscribes to them.
func AllTopics() []string {
	return []string{TopicSession, TopicToast, TopicNavigate, TopicHost}
}

// Toast levels.
const (
	ToastInfo    = "info"
	ToastWarning = "warning"
	ToastError   = "error"
)

// Toast is a transient user notification.
type Toast struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Navigation asks the UI to move to Path.
type Navigation struct {
	Path    string `json:"path"`
	Replace bool   `json:"replace,omitempty"`
}

// Embedding host message types.
const (
	HostLogoutRequest  = "LOGOUT_REQUEST"
	HostLogoutComplete = "ESS_LOGOUT_COMPLETE"
)

// HostMessage is posted to the page embedding the portal.
type HostMessage struct {
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// HostPost is a HostMessage with the origin it must be delivered to.
// "*" means any origin.
type HostPost struct {
	TargetOrigin string      `json:"target_origin"`
	Message      HostMessage `json:"message"`
}
