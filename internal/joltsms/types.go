package joltsms

// Number is a rented phone number.
type Number struct {
	ID                 string   `json:"id"`
	PhoneNumber        string   `json:"phoneNumber"`
	Status             string   `json:"status"`
	DisplayStatus      string   `json:"displayStatus,omitempty"`
	ServiceName        string   `json:"serviceName,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	CreatedAt          string   `json:"createdAt"`
	UpdatedAt          string   `json:"updatedAt"`
	RentedAt           string   `json:"rentedAt"`
	ExpiresAt          string   `json:"expiresAt,omitempty"`
	NextBillingDate    string   `json:"nextBillingDate,omitempty"`
	MessageCount       int      `json:"messageCount"`
	UnreadCount        int      `json:"unreadCount"`
	LastMessageAt      string   `json:"lastMessageAt,omitempty"`
	SubscriptionID     string   `json:"subscriptionId,omitempty"`
	SubscriptionStatus string   `json:"subscriptionStatus,omitempty"`

	// AutoRenewEnabled is nil when the API did not report it.
	AutoRenewEnabled *bool `json:"autoRenewEnabled,omitempty"`
}

// NumberRef is the abbreviated number embedded in a Message.
type NumberRef struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
}

// Message is an inbound SMS.
type Message struct {
	ID         string    `json:"id"`
	NumberID   string    `json:"numberId"`
	Number     NumberRef `json:"number"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Body       string    `json:"body"`
	ParsedCode string    `json:"parsedCode,omitempty"`
	Encrypted  bool      `json:"encrypted"`
	IsRead     bool      `json:"isRead"`
	ReceivedAt string    `json:"receivedAt"`
	IngestedAt string    `json:"ingestedAt"`
}

// ListMeta carries pagination state for list endpoints.
type ListMeta struct {
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
	Total      int    `json:"total"`
	Limit      int    `json:"limit"`
}

// ListResponse is a single page of a cursor-paginated listing.
type ListResponse[T any] struct {
	Data []T      `json:"data"`
	Meta ListMeta `json:"meta"`
}

// Cursor returns the cursor for the next page, or "" when the listing is exhausted.
func (l *ListResponse[T]) Cursor() string {
	if l == nil || !l.Meta.HasMore {
		return ""
	}
	return l.Meta.NextCursor
}

// RentResponse is returned by the rent endpoint.
type RentResponse struct {
	Success          bool   `json:"success"`
	SubscriptionID   string `json:"subscriptionId,omitempty"`
	Status           string `json:"status"`
	ClientSecret     string `json:"clientSecret,omitempty"`
	RequiresAction   bool   `json:"requiresAction"`
	Message          string `json:"message,omitempty"`
	Error            string `json:"error,omitempty"`
	HostedInvoiceURL string `json:"hostedInvoiceUrl,omitempty"`
}

// Subscription is a billing subscription, usually linked to one number.
type Subscription struct {
	ID                   string `json:"id"`
	StripeSubscriptionID string `json:"stripeSubscriptionId"`
	Status               string `json:"status"`
	BillingHealth        string `json:"billingHealth"`
	NumberID             string `json:"numberId,omitempty"`
	CurrentPeriodStart   string `json:"currentPeriodStart"`
	CurrentPeriodEnd     string `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool   `json:"cancelAtPeriodEnd"`
	CreatedAt            string `json:"createdAt"`
	BasePriceDisplay     string `json:"basePriceDisplay,omitempty"`
	AddonPriceDisplay    string `json:"addonPriceDisplay,omitempty"`
	AreaCodePref         string `json:"areaCodePref,omitempty"`
}

// SubscriptionList is returned by the subscriptions endpoint.
type SubscriptionList struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// NumberUpdate is a partial update. Nil fields are left unchanged; a non-nil
// empty value clears the field.
type NumberUpdate struct {
	ServiceName *string   `json:"serviceName,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u NumberUpdate) Empty() bool {
	return u.ServiceName == nil && u.Tags == nil && u.Notes == nil
}

// CancelResponse is returned when auto-renew is toggled.
type CancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MarkReadResponse is returned when a single message is marked read.
type MarkReadResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	ReadAt    string `json:"readAt"`
}

// MarkAllReadResponse is returned by the bulk mark-read endpoint.
type MarkAllReadResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// ListNumbersParams selects a page of owned numbers.
type ListNumbersParams struct {
	Limit  int
	Cursor string
}

// ListMessagesParams selects a page of messages.
type ListMessagesParams struct {
	NumberID string
	Since    string
	Limit    int
	Cursor   string
	From     string
}

// RentParams describes a rent request.
type RentParams struct {
	AreaCode       string
	IdempotencyKey string
}
