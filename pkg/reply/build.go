package reply

import (
	"fmt"
	"strings"

	"dyebot/pkg/catalog"
	"dyebot/pkg/session"
)

// Selection ids carried by buttons and list rows. Inbound selection events
// are matched against these ids only, never against display titles.
const (
	IDBrowseProducts = "browse_products"
	IDSearchProducts = "search_products"
	IDRequestQuote   = "request_quote"
	IDTrackOrder     = "track_order"
	IDContactSupport = "contact_support"

	IDAddToCart        = "add_to_cart"
	IDBackToProducts   = "back_to_products"
	IDBackToCategories = "back_to_categories"
	IDViewCart         = "view_cart"

	IDCheckout         = "checkout"
	IDClearCart        = "clear_cart"
	IDContinueShopping = "continue_shopping"

	IDSalesInquiry     = "sales_inquiry"
	IDTechnicalSupport = "technical_support"

	IDMainMenu = "main_menu"
)

// Prefixes for dynamically generated selection ids.
const (
	CategoryIDPrefix = "category_"
	ProductIDPrefix  = "product_"
)

const currencySymbol = "$"

// Row titles beyond this are cut; the messaging platforms reject longer ones.
const maxRowTitleLen = 24

// CategoryID builds the selection id for a category row.
func CategoryID(key string) string {
	return CategoryIDPrefix + key
}

// ProductID builds the selection id for a product row.
func ProductID(id string) string {
	return ProductIDPrefix + id
}

// KnownSelectionID reports whether the id is one this package could have
// attached to a button or list row.
func KnownSelectionID(id string) bool {
	if strings.HasPrefix(id, CategoryIDPrefix) || strings.HasPrefix(id, ProductIDPrefix) {
		return true
	}

	switch id {
	case IDBrowseProducts, IDSearchProducts, IDRequestQuote, IDTrackOrder, IDContactSupport,
		IDAddToCart, IDBackToProducts, IDBackToCategories, IDViewCart,
		IDCheckout, IDClearCart, IDContinueShopping,
		IDSalesInquiry, IDTechnicalSupport, IDMainMenu:
		return true
	default:
		return false
	}
}

// FormatPrice renders a catalog price for display.
func FormatPrice(value float64) string {
	return fmt.Sprintf("%s%.2f", currencySymbol, value)
}

func stockLabel(inStock bool) string {
	if inStock {
		return "✅ In stock"
	}
	return "❌ Out of stock"
}

func rowTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) <= maxRowTitleLen {
		return title
	}
	return title[:maxRowTitleLen-1] + "…"
}

func categoryTitle(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:] + " dyes"
}

// MainMenu is the top-level option list shown on greeting and reset.
func MainMenu() OptionList {
	return NewOptionList("DyeWorks Trading", "Welcome! How can we help you today?", Section{
		Title: "Main menu",
		Rows: []Row{
			{ID: IDBrowseProducts, Title: "Browse products", Description: "Explore our dye catalog by category"},
			{ID: IDSearchProducts, Title: "Search products", Description: "Find a product by name or CAS number"},
			{ID: IDRequestQuote, Title: "Request a quote", Description: "Get bulk pricing from our sales team"},
			{ID: IDTrackOrder, Title: "Track an order", Description: "Check the status of a placed order"},
			{ID: IDContactSupport, Title: "Contact support", Description: "Talk to sales or technical support"},
		},
	})
}

// CategoryList renders the category menu in first-seen catalog order.
func CategoryList(categories []catalog.CategorySummary) OptionList {
	rows := make([]Row, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, Row{
			ID:          CategoryID(c.Key),
			Title:       rowTitle(categoryTitle(c.Key)),
			Description: fmt.Sprintf("%d products", c.ProductCount),
		})
	}

	return NewOptionList("Product categories", "Pick a category to browse.", Section{
		Title: "Categories",
		Rows:  rows,
	})
}

// EmptyCategoryNotice tells the sender a category has nothing to show.
func EmptyCategoryNotice(key string) Text {
	return NewText(fmt.Sprintf("There are no products in %s right now. Please pick another category.", categoryTitle(key)))
}

// ProductList renders the products of one category with a trailing row back
// to the category menu. At most MaxRowsPerSection-1 products are listed so
// the back row always survives the section limit.
func ProductList(categoryKey string, products []catalog.Product) OptionList {
	if len(products) > MaxRowsPerSection-1 {
		products = products[:MaxRowsPerSection-1]
	}

	rows := make([]Row, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, Row{
			ID:          ProductID(p.ID),
			Title:       rowTitle(p.Name),
			Description: fmt.Sprintf("%s · %s", FormatPrice(p.Price), stockLabel(p.InStock)),
		})
	}
	rows = append(rows, Row{ID: IDBackToCategories, Title: "⬅ Back to categories"})

	return NewOptionList(categoryTitle(categoryKey), "Pick a product for details.", Section{
		Title: "Products",
		Rows:  rows,
	})
}

// ProductDetail renders the full detail text for one product.
func ProductDetail(p catalog.Product) Text {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", p.Name)
	fmt.Fprintf(&b, "Type: %s\n", p.Type)
	fmt.Fprintf(&b, "Application: %s\n", p.Application)
	fmt.Fprintf(&b, "Packaging: %s\n", p.Packaging)
	fmt.Fprintf(&b, "Price: %s per kg\n", FormatPrice(p.Price))
	fmt.Fprintf(&b, "MOQ: %s\n", p.MOQ)
	if p.CASNumber != "" {
		fmt.Fprintf(&b, "CAS: %s\n", p.CASNumber)
	}
	fmt.Fprintf(&b, "Availability: %s\n\n", stockLabel(p.InStock))
	b.WriteString(p.Description)
	return NewText(b.String())
}

// ProductActions is the action prompt shown under a product detail. With a
// non-empty cart there are four actions, which no longer fit the button
// limit, so the prompt switches to an option list.
func ProductActions(cartSize int) Message {
	if cartSize > 0 {
		return NewOptionList("", "What would you like to do?", Section{
			Rows: []Row{
				{ID: IDAddToCart, Title: "Add to cart"},
				{ID: IDRequestQuote, Title: "Request a quote"},
				{ID: IDViewCart, Title: fmt.Sprintf("View cart (%d)", cartSize)},
				{ID: IDBackToProducts, Title: "⬅ Back to products"},
			},
		})
	}

	return NewButtonPrompt("", "What would you like to do?",
		Button{ID: IDAddToCart, Title: "Add to cart"},
		Button{ID: IDRequestQuote, Title: "Request a quote"},
		Button{ID: IDBackToProducts, Title: "Back to products"},
	)
}

// ProductNotFound reports an unknown product id distinctly from an empty
// category.
func ProductNotFound() Text {
	return NewText("Sorry, we could not find that product anymore. It may have been removed from the catalog.")
}

// AddedToCart confirms a cart add.
func AddedToCart(item session.CartItem) Text {
	return NewText(fmt.Sprintf("Added %s to your cart (quantity: %d).", item.Name, item.Quantity))
}

// CartSummary renders the numbered cart lines, the grand total and the cart
// action buttons.
func CartSummary(items []session.CartItem, total float64) []Message {
	var b strings.Builder
	b.WriteString("*Your cart*\n\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s × %d = %s\n", i+1, item.Name, item.Quantity, FormatPrice(item.LineTotal()))
	}
	fmt.Fprintf(&b, "\nTotal: %s", FormatPrice(total))

	return []Message{
		NewText(b.String()),
		NewButtonPrompt("", "Ready to order?",
			Button{ID: IDCheckout, Title: "Checkout"},
			Button{ID: IDClearCart, Title: "Clear cart"},
			Button{ID: IDContinueShopping, Title: "Keep shopping"},
		),
	}
}

// EmptyCartNotice is shown when a cart action finds nothing to act on.
func EmptyCartNotice() Text {
	return NewText("Your cart is empty. Browse the catalog to add products first.")
}

// CartCleared confirms the cart was emptied.
func CartCleared() Text {
	return NewText("Your cart has been cleared.")
}

// CheckoutSummary confirms the order handoff to the sales desk.
func CheckoutSummary(items []session.CartItem, total float64) Text {
	var b strings.Builder
	b.WriteString("*Order summary*\n\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s × %d = %s\n", i+1, item.Name, item.Quantity, FormatPrice(item.LineTotal()))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n\n", FormatPrice(total))
	b.WriteString("Thank you! Our sales desk will confirm availability, freight and payment terms with you shortly. Reply with your delivery address and GST details to speed things up.")
	return NewText(b.String())
}

// SearchPrompt asks for a search query.
func SearchPrompt() Text {
	return NewText("What are you looking for? Send a product name, dye type or CAS number.")
}

// SearchResults renders search hits with a trailing main menu row.
func SearchResults(query string, products []catalog.Product) OptionList {
	if len(products) > MaxRowsPerSection-1 {
		products = products[:MaxRowsPerSection-1]
	}

	rows := make([]Row, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, Row{
			ID:          ProductID(p.ID),
			Title:       rowTitle(p.Name),
			Description: fmt.Sprintf("%s · %s", FormatPrice(p.Price), stockLabel(p.InStock)),
		})
	}
	rows = append(rows, Row{ID: IDMainMenu, Title: "⬅ Main menu"})

	return NewOptionList("Search results", fmt.Sprintf("Matches for %q:", query), Section{
		Title: "Products",
		Rows:  rows,
	})
}

// NoSearchResults reports a search miss.
func NoSearchResults(query string) Text {
	return NewText(fmt.Sprintf("No products matched %q. Try a different name or browse the categories instead.", query))
}

// SupportMenu offers the support sub-menu.
func SupportMenu() ButtonPrompt {
	return NewButtonPrompt("Contact support", "What do you need help with?",
		Button{ID: IDSalesInquiry, Title: "Sales inquiry"},
		Button{ID: IDTechnicalSupport, Title: "Technical support"},
	)
}

// SalesInquiryReply is the canned sales contact handoff.
func SalesInquiryReply() Text {
	return NewText("Our sales team will reach out within one business day. For urgent inquiries call +1 555 0134 or email sales@dyeworks.example.")
}

// TechnicalSupportReply is the canned technical contact handoff.
func TechnicalSupportReply() Text {
	return NewText("Our application lab is happy to help with recipes and fastness issues. Email lab@dyeworks.example with your substrate and process details.")
}

// TrackOrderPrompt asks for an order number.
func TrackOrderPrompt() Text {
	return NewText("Please send your order number (for example DW-2041).")
}

// OrderStatus renders a tracked order's status line.
func OrderStatus(orderNumber string, status string, etaDays int) Text {
	if etaDays > 0 {
		return NewText(fmt.Sprintf("Order %s is currently *%s*. Estimated delivery in %d days.", orderNumber, status, etaDays))
	}
	return NewText(fmt.Sprintf("Order %s is currently *%s*.", orderNumber, status))
}

// QuotePrompt opens a quote request. productName may be empty when the quote
// is not tied to a viewed product.
func QuotePrompt(ref string, productName string) Text {
	var b strings.Builder
	if productName != "" {
		fmt.Fprintf(&b, "Quote request %s for *%s* opened.\n\n", ref, productName)
	} else {
		fmt.Fprintf(&b, "Quote request %s opened.\n\n", ref)
	}
	b.WriteString("Please share the quantity you need, your delivery location and a contact person. Our sales team will come back with bulk pricing.")
	return NewText(b.String())
}

// QuoteAck closes the quote conversation and hands off to sales.
func QuoteAck(ref string) Text {
	return NewText(fmt.Sprintf("Thanks! We have attached your message to quote request %s. Our sales team will contact you shortly.", ref))
}

// HelpText is the default response when nothing matched.
func HelpText() Text {
	return NewText("Sorry, I didn't understand that. Send \"hi\" for the main menu, or use the buttons and lists to navigate.")
}

// RetryText is shown when event processing fails unexpectedly.
func RetryText() Text {
	return NewText("Something went wrong on our side. Please try that again in a moment.")
}
