package domain

// Client represents a node of the distributed system that competes for
// resources. ExternalID identifies the node and doubles as the tie-break
// key for requests with equal logical timestamps.
type Client struct {
	ID         string
	ExternalID string
	Name       string
}

// Display returns the human-facing label for the client.
func (c Client) Display() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ExternalID
}
