package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"dyebot/pkg/catalog"
	"dyebot/pkg/reply"
	"dyebot/pkg/session"
)

// Engine is the dialog state machine. Given one inbound event it reads and
// mutates the sender's session under the store's per-sender lock and returns
// the ordered outbound messages to deliver. Session changes are committed
// before the caller attempts delivery, so a failed send never loses a
// transition.
type Engine struct {
	index       *catalog.Index
	store       *session.Store
	status      OrderStatusProvider
	newQuoteRef func() string
	log         *slog.Logger
}

// NewEngine wires the engine's dependencies. A nil status provider falls back
// to the fake, time-seeded provider; a nil logger falls back to the default.
func NewEngine(index *catalog.Index, store *session.Store, status OrderStatusProvider, log *slog.Logger) (*Engine, error) {
	if index == nil {
		return nil, errors.New("catalog index is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if status == nil {
		status = NewFakeOrderStatusProvider(time.Now().UnixNano())
	}
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		index:       index,
		store:       store,
		status:      status,
		newQuoteRef: defaultQuoteRef,
		log:         log.With("component", "dialog.engine"),
	}, nil
}

func defaultQuoteRef() string {
	return "Q-" + strings.ToUpper(uuid.NewString()[:8])
}

// ProcessEvent is the core's only entry point. The step runs on a working
// copy of the session and commits atomically, so an unexpected failure leaves
// the session at its last-committed state and the sender gets a generic retry
// message instead of silence.
func (e *Engine) ProcessEvent(_ context.Context, senderID string, event Event) (messages []reply.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Recovered while processing event", "sender_id", senderID, "panic", r)
			messages = []reply.Message{reply.RetryText()}
			err = nil
		}
	}()

	lockErr := e.store.WithLock(senderID, func(s *session.Session) error {
		working := *s
		working.Cart = make([]session.CartItem, len(s.Cart))
		copy(working.Cart, s.Cart)

		messages = e.step(&working, event)

		working.LastInteractionTime = time.Now().UTC()
		*s = working
		return nil
	})
	if lockErr != nil {
		return nil, lockErr
	}

	return messages, nil
}

// step evaluates the transition rules in priority order against the
// normalized token, the current state and the cart.
func (e *Engine) step(s *session.Session, event Event) []reply.Message {
	token := event.token()

	// Reset clears conversational position only; the cart survives.
	switch token {
	case "reset", "restart":
		s.State = session.StateWelcome
		s.SelectedCategory = ""
		s.LastViewedProductID = ""
		return []reply.Message{reply.MainMenu()}
	case "hi", "hello", "start":
		s.State = session.StateWelcome
		return []reply.Message{reply.MainMenu()}
	}

	if messages, ok := e.stepCommand(s, token); ok {
		return messages
	}

	// Prompting states consume the next free-text input.
	if event.isText() && token != "" {
		query := strings.TrimSpace(event.Text)
		switch s.State {
		case session.StateSearching:
			return e.finishSearch(s, query)
		case session.StateTrackingOrder:
			return e.finishTracking(s, query)
		case session.StateRequestingQuote:
			return e.finishQuote(s)
		}

		// Fallback direct search on unmatched text; hits leave the state
		// untouched.
		if hits := e.index.Search(query); len(hits) > 0 {
			return []reply.Message{reply.SearchResults(query, hits)}
		}
	}

	if s.State == session.StateWelcome {
		return []reply.Message{reply.HelpText(), reply.MainMenu()}
	}
	return []reply.Message{reply.HelpText()}
}

// stepCommand matches the structural commands and dynamic selection ids. The
// second return value reports whether the token was recognized.
func (e *Engine) stepCommand(s *session.Session, token string) ([]reply.Message, bool) {
	switch {
	case token == reply.IDBrowseProducts || token == reply.IDContinueShopping:
		s.State = session.StateBrowsingCategories
		return []reply.Message{reply.CategoryList(e.index.Categories())}, true

	case strings.HasPrefix(token, reply.CategoryIDPrefix):
		return e.showCategory(s, strings.TrimPrefix(token, reply.CategoryIDPrefix)), true

	case strings.HasPrefix(token, reply.ProductIDPrefix):
		return e.showProduct(s, strings.TrimPrefix(token, reply.ProductIDPrefix)), true

	case token == reply.IDBackToCategories:
		s.State = session.StateBrowsingCategories
		return []reply.Message{reply.CategoryList(e.index.Categories())}, true

	case token == reply.IDBackToProducts:
		if s.SelectedCategory == "" {
			s.State = session.StateBrowsingCategories
			return []reply.Message{reply.CategoryList(e.index.Categories())}, true
		}
		return e.showCategory(s, s.SelectedCategory), true

	case token == reply.IDAddToCart:
		return e.addToCart(s), true

	case token == reply.IDViewCart:
		return e.viewCart(s), true

	case token == reply.IDCheckout:
		return e.checkout(s), true

	case token == reply.IDClearCart:
		s.ClearCart()
		s.State = session.StateWelcome
		return []reply.Message{reply.CartCleared(), reply.MainMenu()}, true

	case token == reply.IDSearchProducts:
		s.State = session.StateSearching
		return []reply.Message{reply.SearchPrompt()}, true

	case token == reply.IDContactSupport:
		s.State = session.StateContactingSupport
		return []reply.Message{reply.SupportMenu()}, true

	case token == reply.IDSalesInquiry:
		s.State = session.StateWelcome
		return []reply.Message{reply.SalesInquiryReply()}, true

	case token == reply.IDTechnicalSupport:
		s.State = session.StateWelcome
		return []reply.Message{reply.TechnicalSupportReply()}, true

	case token == reply.IDTrackOrder:
		s.State = session.StateTrackingOrder
		return []reply.Message{reply.TrackOrderPrompt()}, true

	case token == reply.IDRequestQuote:
		return e.openQuote(s), true

	case token == reply.IDMainMenu:
		s.State = session.StateWelcome
		return []reply.Message{reply.MainMenu()}, true
	}

	return nil, false
}

// showCategory lists a category's products. An empty category is a notice
// plus the category menu again, not a dead end.
func (e *Engine) showCategory(s *session.Session, key string) []reply.Message {
	products := e.index.ByCategory(key)
	if len(products) == 0 {
		s.State = session.StateBrowsingCategories
		return []reply.Message{reply.EmptyCategoryNotice(key), reply.CategoryList(e.index.Categories())}
	}

	s.State = session.StateBrowsingProducts
	s.SelectedCategory = key
	return []reply.Message{reply.ProductList(key, products)}
}

// showProduct renders a product detail with its action prompt. An unknown id
// is reported distinctly from an empty category and routed back to a valid
// menu.
func (e *Engine) showProduct(s *session.Session, id string) []reply.Message {
	product, ok := e.index.ByID(id)
	if !ok {
		e.log.Warn("Selection referenced unknown product", "sender_id", s.SenderID, "product_id", id)
		if s.SelectedCategory != "" {
			if products := e.index.ByCategory(s.SelectedCategory); len(products) > 0 {
				s.State = session.StateBrowsingProducts
				return []reply.Message{reply.ProductNotFound(), reply.ProductList(s.SelectedCategory, products)}
			}
		}
		s.State = session.StateBrowsingCategories
		return []reply.Message{reply.ProductNotFound(), reply.CategoryList(e.index.Categories())}
	}

	s.State = session.StateViewingProduct
	s.LastViewedProductID = product.ID
	return []reply.Message{reply.ProductDetail(product), reply.ProductActions(s.CartSize())}
}

// addToCart merges the last viewed product into the cart.
func (e *Engine) addToCart(s *session.Session) []reply.Message {
	if s.LastViewedProductID == "" {
		s.State = session.StateBrowsingCategories
		return []reply.Message{reply.ProductNotFound(), reply.CategoryList(e.index.Categories())}
	}

	product, ok := e.index.ByID(s.LastViewedProductID)
	if !ok {
		s.State = session.StateBrowsingCategories
		return []reply.Message{reply.ProductNotFound(), reply.CategoryList(e.index.Categories())}
	}

	s.AddToCart(product.ID, product.Name, product.Price)
	for _, item := range s.Cart {
		if item.ProductID == product.ID {
			return []reply.Message{reply.AddedToCart(item), reply.ProductActions(s.CartSize())}
		}
	}
	return []reply.Message{reply.ProductActions(s.CartSize())}
}

func (e *Engine) viewCart(s *session.Session) []reply.Message {
	if s.CartSize() == 0 {
		s.State = session.StateWelcome
		return []reply.Message{reply.EmptyCartNotice(), reply.MainMenu()}
	}
	return reply.CartSummary(s.Cart, s.CartTotal())
}

// checkout requires a non-empty cart; otherwise the sender is redirected to
// the main menu with a notice.
func (e *Engine) checkout(s *session.Session) []reply.Message {
	if s.CartSize() == 0 {
		s.State = session.StateWelcome
		return []reply.Message{reply.EmptyCartNotice(), reply.MainMenu()}
	}

	s.State = session.StateCheckout
	return []reply.Message{reply.CheckoutSummary(s.Cart, s.CartTotal())}
}

// openQuote issues a quote reference and hands the conversation to sales.
// When opened from a product view the reference is tied to that product.
func (e *Engine) openQuote(s *session.Session) []reply.Message {
	var productName string
	if s.State == session.StateViewingProduct && s.LastViewedProductID != "" {
		if product, ok := e.index.ByID(s.LastViewedProductID); ok {
			productName = product.Name
		}
	}

	s.LastQuoteRef = e.newQuoteRef()
	s.State = session.StateRequestingQuote
	return []reply.Message{reply.QuotePrompt(s.LastQuoteRef, productName)}
}

// finishSearch answers the query captured by the searching prompt and
// returns the session toward the main menu.
func (e *Engine) finishSearch(s *session.Session, query string) []reply.Message {
	s.State = session.StateWelcome

	hits := e.index.Search(query)
	if len(hits) == 0 {
		return []reply.Message{reply.NoSearchResults(query), reply.MainMenu()}
	}
	return []reply.Message{reply.SearchResults(query, hits)}
}

// finishTracking answers the captured order number with a synthesized status.
func (e *Engine) finishTracking(s *session.Session, orderNumber string) []reply.Message {
	s.State = session.StateWelcome

	status := e.status.Status(orderNumber)
	return []reply.Message{reply.OrderStatus(orderNumber, status.Status, status.ETADays)}
}

// finishQuote acknowledges the sender's free-form quote details without
// parsing them; the quote reference routes the thread to a human.
func (e *Engine) finishQuote(s *session.Session) []reply.Message {
	ref := s.LastQuoteRef
	s.State = session.StateWelcome
	return []reply.Message{reply.QuoteAck(ref)}
}
