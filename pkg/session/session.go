package session

import (
	"strings"
	"time"
)

// State identifies the sender's current position in the dialog.
type State string

const (
	StateWelcome            State = "welcome"
	StateBrowsingCategories State = "browsing_categories"
	StateBrowsingProducts   State = "browsing_products"
	StateViewingProduct     State = "viewing_product"
	StateSearching          State = "searching"
	StateRequestingQuote    State = "requesting_quote"
	StateContactingSupport  State = "contacting_support"
	StateTrackingOrder      State = "tracking_order"
	StateCheckout           State = "checkout"
)

// CartItem holds one product reference in a cart. Name and unit price are
// cached at the time of add so a later catalog swap cannot reprice an open
// cart mid-conversation.
type CartItem struct {
	ProductID string
	Name      string
	UnitPrice float64
	Quantity  int
}

// LineTotal is the item's quantity-extended price.
func (ci CartItem) LineTotal() float64 {
	return ci.UnitPrice * float64(ci.Quantity)
}

// Session is the per-sender conversational state. Instances live for the
// process lifetime only and are always mutated under the owning store's
// per-sender lock.
type Session struct {
	SenderID            string
	State               State
	Cart                []CartItem
	SelectedCategory    string
	LastViewedProductID string
	LastQuoteRef        string
	LastInteractionTime time.Time
}

// AddToCart merges the product into the cart: an existing line gets its
// quantity incremented, otherwise a new line is appended. Insertion order is
// display order.
func (s *Session) AddToCart(productID string, name string, unitPrice float64) {
	productID = strings.TrimSpace(productID)
	for i := range s.Cart {
		if s.Cart[i].ProductID == productID {
			s.Cart[i].Quantity++
			return
		}
	}

	s.Cart = append(s.Cart, CartItem{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  1,
	})
}

// ClearCart drops every cart line.
func (s *Session) ClearCart() {
	s.Cart = nil
}

// CartTotal sums all line totals.
func (s *Session) CartTotal() float64 {
	var total float64
	for _, item := range s.Cart {
		total += item.LineTotal()
	}
	return total
}

// CartSize reports the number of distinct cart lines.
func (s *Session) CartSize() int {
	return len(s.Cart)
}
