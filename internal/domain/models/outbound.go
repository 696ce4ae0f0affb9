package models

// OutboundMessageRequest is a manual send through the API.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}

// AutomationReply is the answer sent back to a worker after a command.
type AutomationReply struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Text renders the reply as a single WhatsApp message body.
func (r AutomationReply) Text() string {
	if r.Title == "" {
		return r.Message
	}
	return "*" + r.Title + "*\n" + r.Message
}
