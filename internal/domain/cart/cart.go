// Package cart contains the pure cart aggregate and its reducer transitions.
// Persistence and authentication gating live in the service layer.
package cart

import "strings"

// defaultVariant substitutes for an absent size or color in line keys.
const defaultVariant = "default"

// Product is a denormalized snapshot of a catalog product captured at
// add-to-cart time. It is not a live reference; later catalog edits do not
// affect existing lines.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

// LineKey builds the composite key identifying a cart line. Re-adding the
// same product, size, and color merges into the existing line instead of
// duplicating it.
func LineKey(productID, size, color string) string {
	if size == "" {
		size = defaultVariant
	}
	if color == "" {
		color = defaultVariant
	}
	return strings.Join([]string{productID, size, color}, "|")
}

// Line is a single cart line item.
type Line struct {
	Key      string  `json:"key"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	// Price is the unit price captured when the line was first added.
	Price float64 `json:"price"`
	Size  string  `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`
}

// State is the cart aggregate. TotalItems and TotalPrice are maintained
// incrementally by every transition; they are never recomputed wholesale.
type State struct {
	Items      []Line  `json:"items"`
	TotalItems int     `json:"total_items"`
	TotalPrice float64 `json:"total_price"`
}

// Empty returns the empty cart aggregate.
func Empty() State {
	return State{Items: []Line{}}
}

// Add merges quantity into an existing line with the same composite key, or
// appends a new line. Quantities below one leave the state unchanged.
func (s State) Add(p Product, quantity int, size, color string) State {
	if quantity < 1 || p.ID == "" {
		return s
	}

	key := LineKey(p.ID, size, color)
	next := s.clone()

	for i := range next.Items {
		if next.Items[i].Key == key {
			next.Items[i].Quantity += quantity
			next.TotalItems += quantity
			next.TotalPrice += next.Items[i].Price * float64(quantity)
			return next
		}
	}

	next.Items = append(next.Items, Line{
		Key:      key,
		Product:  p,
		Quantity: quantity,
		Price:    p.Price,
		Size:     size,
		Color:    color,
	})
	next.TotalItems += quantity
	next.TotalPrice += p.Price * float64(quantity)
	return next
}

// Remove deletes the line with the given key and subtracts its contribution
// from both totals. Removing an absent key is a no-op.
func (s State) Remove(key string) State {
	for i, line := range s.Items {
		if line.Key != key {
			continue
		}
		next := s.clone()
		next.Items = append(next.Items[:i], next.Items[i+1:]...)
		next.TotalItems -= line.Quantity
		next.TotalPrice -= line.Price * float64(line.Quantity)
		return next
	}
	return s
}

// SetQuantity replaces the quantity of an existing line, adjusting totals by
// the delta against the unit price. Quantities at or below zero delegate to
// Remove. Unknown keys are a no-op.
func (s State) SetQuantity(key string, quantity int) State {
	if quantity <= 0 {
		return s.Remove(key)
	}
	for i := range s.Items {
		if s.Items[i].Key != key {
			continue
		}
		next := s.clone()
		delta := quantity - next.Items[i].Quantity
		next.Items[i].Quantity = quantity
		next.TotalItems += delta
		next.TotalPrice += next.Items[i].Price * float64(delta)
		return next
	}
	return s
}

// Find returns the line with the given key, if present.
func (s State) Find(key string) (Line, bool) {
	for _, line := range s.Items {
		if line.Key == key {
			return line, true
		}
	}
	return Line{}, false
}

// IsEmpty reports whether the cart holds no lines.
func (s State) IsEmpty() bool { return len(s.Items) == 0 }

// clone copies the aggregate so transitions never alias the caller's slice.
func (s State) clone() State {
	items := make([]Line, len(s.Items))
	copy(items, s.Items)
	return State{Items: items, TotalItems: s.TotalItems, TotalPrice: s.TotalPrice}
}
