package models

// Topic tags what a notification is about. Mobile clients route on it.
type Topic string

const (
	TopicNewGroup          Topic = "NEW_GROUP"
	TopicNewExpense        Topic = "NEW_EXPENSE"
	TopicFullyPaid         Topic = "FULLY_PAID"
	TopicUserPaid          Topic = "USER_PAID"
	TopicExpenseExpiration Topic = "EXPENSE_EXPIRATION"
)

// Intent describes a notification to one user before it is resolved to
// devices. Intents are never persisted; DeliveryRecord keeps a copy of the
// fields that were actually pushed.
type Intent struct {
	Topic       Topic
	RecipientID string
	GroupID     string

	// ExpenseID is empty for group-level topics such as NEW_GROUP.
	ExpenseID string

	Title string
	Body  string
}

// DeviceToken is a push token registered by one of a user's devices.
// The token string is globally unique; registering it again under another
// user moves it to that user.
type DeviceToken struct {
	// ID is the unique identifier for the registration (UUID format).
	ID string

	UserID string

	// Token is the opaque push token issued to the device.
	Token string

	// CreatedAt is the Unix timestamp of the latest registration.
	CreatedAt int64
}

// DeliveryRecord is persisted after a push to a device succeeds, so a client
// holding only the provider's delivery ID can find out what it referred to.
type DeliveryRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// DeviceTokenID references the DeviceToken the push went through.
	DeviceTokenID string

	// UserID is the recipient at send time. The token may later move to
	// another user; the record stays with this one.
	UserID string

	// DeliveryID is the identifier returned by the push provider.
	DeliveryID string

	Topic     Topic
	GroupID   string
	ExpenseID string
	Title     string
	Body      string

	// CreatedAt is the Unix timestamp when the push was accepted.
	CreatedAt int64
}
