package domain

import "time"

// CartLine is transient checkout input; it is not persisted beyond order
// creation.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartLine `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

// Merge adds a line to the cart, folding quantity into an existing line with
// the same product, size and color.
func (c *Cart) Merge(line CartLine) {
	for i, existing := range c.Items {
		if existing.ProductID == line.ProductID && existing.Size == line.Size && existing.Color == line.Color {
			c.Items[i].Quantity += line.Quantity
			return
		}
	}
	c.Items = append(c.Items, line)
}

// SetQuantity updates a line's quantity, removing it when quantity drops to
// zero or below. Returns false when no matching line exists.
func (c *Cart) SetQuantity(line CartLine) bool {
	for i, existing := range c.Items {
		if existing.ProductID == line.ProductID && existing.Size == line.Size && existing.Color == line.Color {
			if line.Quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Quantity = line.Quantity
			}
			return true
		}
	}
	return false
}
