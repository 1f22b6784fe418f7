// Package wishlist contains the pure wishlist aggregate. It mirrors the cart
// reducer without the quantity and price dimensions: membership is boolean.
package wishlist

import "github.com/marketgrove/storefront-state/internal/domain/cart"

// Item is a single wishlist entry holding a product snapshot.
type Item struct {
	Product cart.Product `json:"product"`
}

// State is the wishlist aggregate. TotalItems is a simple count.
type State struct {
	Items      []Item `json:"items"`
	TotalItems int    `json:"total_items"`
}

// Empty returns the empty wishlist aggregate.
func Empty() State {
	return State{Items: []Item{}}
}

// Add appends a product. Adding an already-present product id is a no-op.
func (s State) Add(p cart.Product) State {
	if p.ID == "" || s.Contains(p.ID) {
		return s
	}
	next := s.clone()
	next.Items = append(next.Items, Item{Product: p})
	next.TotalItems++
	return next
}

// Remove deletes the entry for the given product id. Absent ids are a no-op.
func (s State) Remove(productID string) State {
	for i, item := range s.Items {
		if item.Product.ID != productID {
			continue
		}
		next := s.clone()
		next.Items = append(next.Items[:i], next.Items[i+1:]...)
		next.TotalItems--
		return next
	}
	return s
}

// Contains reports whether the product id is on the wishlist.
func (s State) Contains(productID string) bool {
	for _, item := range s.Items {
		if item.Product.ID == productID {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the wishlist holds no entries.
func (s State) IsEmpty() bool { return len(s.Items) == 0 }

func (s State) clone() State {
	items := make([]Item, len(s.Items))
	copy(items, s.Items)
	return State{Items: items, TotalItems: s.TotalItems}
}
