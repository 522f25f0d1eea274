package zendesk

// TicketPreview is what the public preview endpoint exposes. Requester
// identity, CC list, assignee, organization and user ids never appear here.
type TicketPreview struct {
	TicketID    int64            `json:"ticketId"`
	Subject     string           `json:"subject"`
	Status      string           `json:"status"`
	Priority    string           `json:"priority,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
	Description string           `json:"description"`
	Comments    []CommentPreview `json:"comments"`
}

type CommentPreview struct {
	ID         int64  `json:"id"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
	AuthorName string `json:"author_name"`
}

// SanitizeForPreview strips everything that should not be public: internal
// notes are dropped entirely and author ids are replaced with display names.
func SanitizeForPreview(ticket *Ticket, comments []Comment) TicketPreview {
	public := make([]CommentPreview, 0, len(comments))
	for _, c := range comments {
		if !c.Public {
			continue
		}
		name := c.AuthorName
		if name == "" {
			name = "Anonymous"
		}
		public = append(public, CommentPreview{
			ID:         c.ID,
			Body:       c.Body,
			CreatedAt:  c.CreatedAt,
			AuthorName: name,
		})
	}

	return TicketPreview{
		TicketID:    ticket.ID,
		Subject:     ticket.Subject,
		Status:      ticket.Status,
		Priority:    ticket.Priority,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		Description: ticket.Description,
		Comments:    public,
	}
}
