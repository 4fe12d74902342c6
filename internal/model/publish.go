package model

// TransportKind names the publishing transport that handled the edition.
type TransportKind string

const (
	TransportAPI     TransportKind = "api"
	TransportBrowser TransportKind = "browser"
	TransportNone    TransportKind = ""
)

// PublishState tracks the distribution state machine.
type PublishState string

const (
	PublishNotStarted PublishState = "not_started"
	PublishDrafted    PublishState = "drafted"
	PublishPublished  PublishState = "published"
	PublishFailed     PublishState = "failed"
)

// PublishRecord is the result of the distribution stage. Drives what
// reporting and notification say to the operator.
type PublishRecord struct {
	PostID      string        `json:"post_id,omitempty"`
	PostURL     string        `json:"post_url,omitempty"`
	Transport   TransportKind `json:"transport,omitempty"`
	State       PublishState  `json:"state"`
	PreviewFree string        `json:"preview_free,omitempty"`
	PreviewPrem string        `json:"preview_premium,omitempty"`
}
