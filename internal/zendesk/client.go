package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/telecrm/helpdesk-sso/internal/domain"
)

// Client talks to the helpdesk REST API with agent credentials. It is only
// ever used server-side; the token never reaches the browser.
type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

func NewClient(baseURL, email, token string) *Client {
	return &Client{
		baseURL: baseURL,
		email:   email,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type Ticket struct {
	ID          int64  `json:"id"`
	Subject     string `json:"subject"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type Comment struct {
	ID         int64  `json:"id"`
	Body       string `json:"body"`
	Public     bool   `json:"public"`
	AuthorName string `json:"author_name"`
	CreatedAt  string `json:"created_at"`
}

// commentListOptions are the query parameters for the comment list endpoint.
type commentListOptions struct {
	SortOrder string `url:"sort_order,omitempty"`
	Include   string `url:"include,omitempty"`
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	// Zendesk token auth: "<agent email>/token" as username.
	req.SetBasicAuth(c.email+"/token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("helpdesk request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.ErrTicketNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return domain.ErrTicketAccessDenied
	default:
		return fmt.Errorf("helpdesk api error: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// GetTicket fetches a ticket and its comments.
func (c *Client) GetTicket(ctx context.Context, ticketID string) (*Ticket, []Comment, error) {
	var ticketResp struct {
		Ticket Ticket `json:"ticket"`
	}
	if err := c.get(ctx, fmt.Sprintf("/tickets/%s.json", ticketID), &ticketResp); err != nil {
		return nil, nil, err
	}

	opts, err := query.Values(commentListOptions{SortOrder: "asc", Include: "users"})
	if err != nil {
		return nil, nil, err
	}
	var commentsResp struct {
		Comments []Comment `json:"comments"`
	}
	path := fmt.Sprintf("/tickets/%s/comments.json?%s", ticketID, opts.Encode())
	if err := c.get(ctx, path, &commentsResp); err != nil {
		return nil, nil, err
	}

	return &ticketResp.Ticket, commentsResp.Comments, nil
}
