package dialog

import (
	"context"
	"strings"
	"testing"

	"dyebot/pkg/catalog"
	"dyebot/pkg/reply"
	"dyebot/pkg/session"
)

type fixedStatusProvider struct{}

func (fixedStatusProvider) Status(string) OrderStatus {
	return OrderStatus{Status: "in transit", ETADays: 3}
}

type panickyStatusProvider struct{}

func (panickyStatusProvider) Status(string) OrderStatus {
	panic("order backend unavailable")
}

func testEngine(t *testing.T, status OrderStatusProvider) (*Engine, *session.Store) {
	t.Helper()

	ix, err := catalog.Load(context.Background(), catalog.Embedded())
	if err != nil {
		t.Fatalf("catalog.Load error: %v", err)
	}

	store := session.NewStore()
	engine, err := NewEngine(ix, store, status, nil)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	engine.newQuoteRef = func() string { return "Q-TEST0001" }
	return engine, store
}

func process(t *testing.T, e *Engine, senderID string, event Event) []reply.Message {
	t.Helper()

	messages, err := e.ProcessEvent(context.Background(), senderID, event)
	if err != nil {
		t.Fatalf("ProcessEvent error: %v", err)
	}
	if len(messages) == 0 {
		t.Fatal("ProcessEvent returned no messages")
	}
	return messages
}

func wantState(t *testing.T, store *session.Store, senderID string, want session.State) {
	t.Helper()

	if got := store.Get(senderID).State; got != want {
		t.Fatalf("state = %q, want %q", got, want)
	}
}

func asText(t *testing.T, m reply.Message) reply.Text {
	t.Helper()

	text, ok := m.(reply.Text)
	if !ok {
		t.Fatalf("message = %T, want reply.Text", m)
	}
	return text
}

func asOptionList(t *testing.T, m reply.Message) reply.OptionList {
	t.Helper()

	list, ok := m.(reply.OptionList)
	if !ok {
		t.Fatalf("message = %T, want reply.OptionList", m)
	}
	return list
}

func TestGreetingShowsMainMenu(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})

	messages := process(t, e, "wa:100", TextEvent("hi"))
	if len(messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(messages))
	}

	menu := asOptionList(t, messages[0])
	rows := menu.Sections[0].Rows
	want := []string{
		reply.IDBrowseProducts,
		reply.IDSearchProducts,
		reply.IDRequestQuote,
		reply.IDTrackOrder,
		reply.IDContactSupport,
	}
	if len(rows) != len(want) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(want))
	}
	for i, id := range want {
		if rows[i].ID != id {
			t.Fatalf("rows[%d].ID = %q, want %q", i, rows[i].ID, id)
		}
	}
	wantState(t, store, "wa:100", session.StateWelcome)
}

func TestBrowseToCartFlow(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:200"

	process(t, e, sender, SelectionEvent(reply.IDBrowseProducts))
	wantState(t, store, sender, session.StateBrowsingCategories)

	listing := process(t, e, sender, SelectionEvent(reply.CategoryID("reactive")))
	products := asOptionList(t, listing[0]).Sections[0].Rows
	if products[0].ID != reply.ProductID("dye-001") {
		t.Fatalf("first row = %q, want product_dye-001", products[0].ID)
	}
	wantState(t, store, sender, session.StateBrowsingProducts)

	detail := process(t, e, sender, SelectionEvent(reply.ProductID("dye-001")))
	if !strings.Contains(asText(t, detail[0]).Body, "Reactive Red 120") {
		t.Fatalf("detail missing product name: %q", asText(t, detail[0]).Body)
	}
	wantState(t, store, sender, session.StateViewingProduct)

	process(t, e, sender, SelectionEvent(reply.IDAddToCart))

	summary := process(t, e, sender, SelectionEvent(reply.IDViewCart))
	body := asText(t, summary[0]).Body
	if !strings.Contains(body, "1. Reactive Red 120 × 1 = $520.00") {
		t.Fatalf("cart summary missing line: %q", body)
	}
	if !strings.Contains(body, "Total: $520.00") {
		t.Fatalf("cart summary missing total: %q", body)
	}

	s := store.Get(sender)
	if len(s.Cart) != 1 || s.Cart[0].Quantity != 1 {
		t.Fatalf("cart = %#v, want one line of quantity 1", s.Cart)
	}
}

func TestEmptyCategoryReturnsToCategoryList(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:300"

	process(t, e, sender, SelectionEvent(reply.IDBrowseProducts))

	messages := process(t, e, sender, SelectionEvent(reply.CategoryID("vat")))
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if !strings.Contains(asText(t, messages[0]).Body, "no products") {
		t.Fatalf("notice = %q, want a no-products notice", asText(t, messages[0]).Body)
	}
	asOptionList(t, messages[1])
	wantState(t, store, sender, session.StateBrowsingCategories)
}

func TestCheckoutWithEmptyCartRedirectsToWelcome(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:400"

	messages := process(t, e, sender, SelectionEvent(reply.IDCheckout))
	if !strings.Contains(asText(t, messages[0]).Body, "empty") {
		t.Fatalf("notice = %q, want empty-cart notice", asText(t, messages[0]).Body)
	}
	wantState(t, store, sender, session.StateWelcome)
}

func TestCheckoutWithItems(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:410"

	process(t, e, sender, SelectionEvent(reply.ProductID("dye-009")))
	process(t, e, sender, SelectionEvent(reply.IDAddToCart))

	messages := process(t, e, sender, SelectionEvent(reply.IDCheckout))
	body := asText(t, messages[0]).Body
	if !strings.Contains(body, "Acid Blue 9 × 1 = $380.00") {
		t.Fatalf("checkout summary missing line: %q", body)
	}
	wantState(t, store, sender, session.StateCheckout)

	// The cart is handed to sales, not dropped.
	sess := store.Get(sender)
	if sess.CartSize() != 1 {
		t.Fatal("cart was cleared by checkout")
	}
}

func TestUnrecognizedTextKeepsState(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:500"

	process(t, e, sender, SelectionEvent(reply.IDBrowseProducts))

	messages := process(t, e, sender, TextEvent("xyz123"))
	if len(messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(messages))
	}
	if !strings.Contains(asText(t, messages[0]).Body, "didn't understand") {
		t.Fatalf("message = %q, want help text", asText(t, messages[0]).Body)
	}
	wantState(t, store, sender, session.StateBrowsingCategories)
}

func TestResetKeepsCart(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:600"

	process(t, e, sender, SelectionEvent(reply.ProductID("dye-001")))
	process(t, e, sender, SelectionEvent(reply.IDAddToCart))

	process(t, e, sender, TextEvent("reset"))
	wantState(t, store, sender, session.StateWelcome)

	s := store.Get(sender)
	if s.CartSize() != 1 {
		t.Fatalf("cart size after reset = %d, want 1", s.CartSize())
	}
	if s.SelectedCategory != "" || s.LastViewedProductID != "" {
		t.Fatalf("browse position survived reset: %#v", s)
	}
}

func TestAddToCartNeverDuplicatesLines(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:700"

	process(t, e, sender, SelectionEvent(reply.ProductID("dye-001")))
	process(t, e, sender, SelectionEvent(reply.IDAddToCart))
	process(t, e, sender, SelectionEvent(reply.IDAddToCart))

	s := store.Get(sender)
	if len(s.Cart) != 1 {
		t.Fatalf("cart lines = %d, want 1", len(s.Cart))
	}
	if s.Cart[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", s.Cart[0].Quantity)
	}
}

func TestSearchPromptConsumesNextText(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:800"

	process(t, e, sender, SelectionEvent(reply.IDSearchProducts))
	wantState(t, store, sender, session.StateSearching)

	messages := process(t, e, sender, TextEvent("blue"))
	rows := asOptionList(t, messages[0]).Sections[0].Rows
	if rows[len(rows)-1].ID != reply.IDMainMenu {
		t.Fatalf("last row = %q, want %q", rows[len(rows)-1].ID, reply.IDMainMenu)
	}
	wantState(t, store, sender, session.StateWelcome)
}

func TestSearchMissReturnsToWelcome(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:810"

	process(t, e, sender, SelectionEvent(reply.IDSearchProducts))
	messages := process(t, e, sender, TextEvent("zzzzz"))
	if !strings.Contains(asText(t, messages[0]).Body, "No products matched") {
		t.Fatalf("message = %q, want no-match notice", asText(t, messages[0]).Body)
	}
	wantState(t, store, sender, session.StateWelcome)
}

func TestDirectTextSearchKeepsState(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:900"

	process(t, e, sender, SelectionEvent(reply.IDBrowseProducts))

	messages := process(t, e, sender, TextEvent("congo"))
	_ = messages // no hits for this query is fine; only state matters below

	hits := process(t, e, sender, TextEvent("Reactive Red"))
	rows := asOptionList(t, hits[0]).Sections[0].Rows
	if rows[0].ID != reply.ProductID("dye-001") {
		t.Fatalf("rows[0].ID = %q, want product_dye-001", rows[0].ID)
	}
	wantState(t, store, sender, session.StateBrowsingCategories)
}

func TestUnknownProductReportedDistinctly(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:1000"

	process(t, e, sender, SelectionEvent(reply.CategoryID("reactive")))

	messages := process(t, e, sender, SelectionEvent(reply.ProductID("dye-999")))
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if !strings.Contains(asText(t, messages[0]).Body, "could not find that product") {
		t.Fatalf("notice = %q, want product-not-found", asText(t, messages[0]).Body)
	}
	asOptionList(t, messages[1])
	wantState(t, store, sender, session.StateBrowsingProducts)
}

func TestTrackOrderFlow(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:1100"

	process(t, e, sender, SelectionEvent(reply.IDTrackOrder))
	wantState(t, store, sender, session.StateTrackingOrder)

	messages := process(t, e, sender, TextEvent("DW-2041"))
	body := asText(t, messages[0]).Body
	if !strings.Contains(body, "DW-2041") || !strings.Contains(body, "in transit") {
		t.Fatalf("status = %q, want order number and fixed status", body)
	}
	if !strings.Contains(body, "3 days") {
		t.Fatalf("status = %q, want ETA from injected provider", body)
	}
	wantState(t, store, sender, session.StateWelcome)
}

func TestSupportFlow(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:1200"

	messages := process(t, e, sender, SelectionEvent(reply.IDContactSupport))
	prompt, ok := messages[0].(reply.ButtonPrompt)
	if !ok {
		t.Fatalf("messages[0] = %T, want ButtonPrompt", messages[0])
	}
	if prompt.Buttons[0].ID != reply.IDSalesInquiry || prompt.Buttons[1].ID != reply.IDTechnicalSupport {
		t.Fatalf("buttons = %#v", prompt.Buttons)
	}
	wantState(t, store, sender, session.StateContactingSupport)

	process(t, e, sender, SelectionEvent(reply.IDSalesInquiry))
	wantState(t, store, sender, session.StateWelcome)
}

func TestQuoteFromProductView(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:1300"

	process(t, e, sender, SelectionEvent(reply.ProductID("dye-006")))
	messages := process(t, e, sender, SelectionEvent(reply.IDRequestQuote))
	body := asText(t, messages[0]).Body
	if !strings.Contains(body, "Q-TEST0001") {
		t.Fatalf("quote prompt missing reference: %q", body)
	}
	if !strings.Contains(body, "Disperse Blue 56") {
		t.Fatalf("quote prompt missing product: %q", body)
	}
	wantState(t, store, sender, session.StateRequestingQuote)

	ack := process(t, e, sender, TextEvent("500 kg to Rotterdam, attn. de Vries"))
	if !strings.Contains(asText(t, ack[0]).Body, "Q-TEST0001") {
		t.Fatalf("ack missing reference: %q", asText(t, ack[0]).Body)
	}
	wantState(t, store, sender, session.StateWelcome)
}

func TestClearCartReturnsToWelcome(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:1400"

	process(t, e, sender, SelectionEvent(reply.ProductID("dye-001")))
	process(t, e, sender, SelectionEvent(reply.IDAddToCart))
	process(t, e, sender, SelectionEvent(reply.IDClearCart))

	s := store.Get(sender)
	if s.CartSize() != 0 {
		t.Fatalf("cart size = %d, want 0", s.CartSize())
	}
	wantState(t, store, sender, session.StateWelcome)
}

func TestViewCartValidFromAnyState(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:1500"

	process(t, e, sender, SelectionEvent(reply.ProductID("dye-001")))
	process(t, e, sender, SelectionEvent(reply.IDAddToCart))
	process(t, e, sender, SelectionEvent(reply.IDBrowseProducts))

	messages := process(t, e, sender, SelectionEvent(reply.IDViewCart))
	if !strings.Contains(asText(t, messages[0]).Body, "Reactive Red 120") {
		t.Fatalf("summary = %q, want cart line", asText(t, messages[0]).Body)
	}
	wantState(t, store, sender, session.StateBrowsingCategories)
}

func TestContinueShoppingGoesToCategories(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, fixedStatusProvider{})
	const sender = "wa:1600"

	process(t, e, sender, SelectionEvent(reply.ProductID("dye-001")))
	process(t, e, sender, SelectionEvent(reply.IDAddToCart))
	process(t, e, sender, SelectionEvent(reply.IDContinueShopping))
	wantState(t, store, sender, session.StateBrowsingCategories)
}

func TestPanicLeavesSessionAtLastCommittedState(t *testing.T) {
	t.Parallel()
	e, store := testEngine(t, panickyStatusProvider{})
	const sender = "wa:1700"

	process(t, e, sender, SelectionEvent(reply.IDTrackOrder))
	wantState(t, store, sender, session.StateTrackingOrder)

	messages, err := e.ProcessEvent(context.Background(), sender, TextEvent("DW-2041"))
	if err != nil {
		t.Fatalf("ProcessEvent error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(messages))
	}
	if !strings.Contains(asText(t, messages[0]).Body, "try that again") {
		t.Fatalf("message = %q, want retry text", asText(t, messages[0]).Body)
	}
	wantState(t, store, sender, session.StateTrackingOrder)
}
