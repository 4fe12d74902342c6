package model

// Document is one rendered deliverable of an edition.
type Document struct {
	HTML      string
	Plaintext string
	Subject   string
	Slug      string
}

// RenderedEdition is the free/premium document pair produced once per run
// by content synthesis. Immutable after creation.
type RenderedEdition struct {
	Free        Document
	Premium     Document
	Title       string
	Subtitle    string
	PreviewText string
}

// Empty reports whether synthesis produced no usable content at all.
func (e *RenderedEdition) Empty() bool {
	return e == nil || (e.Free.HTML == "" && e.Premium.HTML == "")
}
