package invoicing

import "time"

// Client is the billed party. It is read-only input to rendering.
type Client struct {
	ID        string
	OwnedBy   string
	Name      string
	Email     string
	Phone     string
	Address   string
	TaxID     string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnerID implements Ownable
func (c *Client) OwnerID() string {
	return c.OwnedBy
}
