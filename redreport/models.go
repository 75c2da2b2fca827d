package redreport

// DestinationType is where calls or messages to a purchased number are delivered.
type DestinationType string

const (
	DestinationVoice DestinationType = "voice"
	DestinationSMS   DestinationType = "sms"
)

type Destination struct {
	Type   DestinationType `json:"type" validate:"required,oneof=voice sms"`
	Target string          `json:"target" validate:"required,max=255"`
}

// CartItem is one number in a purchase intent. Documents reference prior uploads
// required by the number's regulator.
type CartItem struct {
	NumberID    string      `json:"numberId" validate:"required"`
	Quantity    int         `json:"quantity" validate:"min=1,max=100"`
	Destination Destination `json:"destination"`
	Documents   []string    `json:"documents,omitempty"`
}

// IntentState is "new" while the intent only exists in the browser.
type IntentState string

const IntentWaiting IntentState = "waiting"

// PurchaseIntent lives client side until a purchase or a pending verification is confirmed.
type PurchaseIntent struct {
	Items []CartItem  `json:"items"`
	State IntentState `json:"state"`
}

// Routing is the destination update body for a number already owned.
type Routing struct {
	Destination Destination `json:"destination"`
}

// Upload is the metadata RedReport returns for a stored document.
type Upload struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
