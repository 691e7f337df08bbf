package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v78"
	"gorm.io/gorm"

	"github.com/glowleaf/booktokviral/src/api/config"
	"github.com/glowleaf/booktokviral/src/api/types"
)

func testPayments(db *gorm.DB, sub *stripe.Subscription) Payments {
	p := NewPayments(db, config.Config{SiteURL: "http://localhost:3000"})
	p.getSubscription = func(id string) (*stripe.Subscription, error) {
		if sub != nil && sub.ID == id {
			return sub, nil
		}
		return nil, fmt.Errorf("no such subscription %s", id)
	}
	return p
}

func stripeEvent(eventType string, raw string) stripe.Event {
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func TestCheckoutCompletedFeaturesBook(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com", false)
	book := seedBook(t, db, "B000000001", &user.ID, timeNowTrunc())

	p := testPayments(db, nil)
	status, msg := p.handleEvent(stripeEvent("checkout.session.completed", fmt.Sprintf(
		`{"metadata":{"book_id":%q,"user_id":%q,"book_asin":%q}}`, book.ID, user.ID, book.ASIN,
	)))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "one-time payment processed", msg)

	var updated types.Book
	require.NoError(t, db.First(&updated, "id = ?", book.ID).Error)
	require.NotNil(t, updated.FeaturedUntil)

	want := time.Now().AddDate(0, 0, featuredDurationDays)
	assert.WithinDuration(t, want, *updated.FeaturedUntil, time.Minute)
}

func TestCheckoutCompletedMissingMetadata(t *testing.T) {
	db := newTestDB(t)
	p := testPayments(db, nil)

	status, _ := p.handleEvent(stripeEvent("checkout.session.completed", `{"metadata":{}}`))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSubscriptionCheckoutDefersToInvoice(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com", false)
	book := seedBook(t, db, "B000000001", &user.ID, timeNowTrunc())

	p := testPayments(db, nil)
	status, msg := p.handleEvent(stripeEvent("checkout.session.completed", fmt.Sprintf(
		`{"metadata":{"book_id":%q,"user_id":%q,"subscription_type":"weekly_featured"}}`, book.ID, user.ID,
	)))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "subscription checkout completed", msg)

	// Featuring waits for the first invoice.
	var updated types.Book
	require.NoError(t, db.First(&updated, "id = ?", book.ID).Error)
	assert.Nil(t, updated.FeaturedUntil)
}

func TestInvoicePaymentUpsertsSubscription(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com", false)
	book := seedBook(t, db, "B000000001", &user.ID, timeNowTrunc())

	now := time.Now()
	sub := &stripe.Subscription{
		ID:                 "sub_test_1",
		Status:             stripe.SubscriptionStatusActive,
		Customer:           &stripe.Customer{ID: "cus_test_1"},
		CurrentPeriodStart: now.Unix(),
		CurrentPeriodEnd:   now.AddDate(0, 0, 7).Unix(),
		Metadata:           map[string]string{"book_id": book.ID, "user_id": user.ID},
	}
	p := testPayments(db, sub)

	status, msg := p.handleEvent(stripeEvent("invoice.payment_succeeded", `{"subscription":"sub_test_1"}`))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "subscription payment processed", msg)

	var row types.Subscription
	require.NoError(t, db.First(&row, "stripe_subscription_id = ?", "sub_test_1").Error)
	assert.Equal(t, user.ID, row.UserID)
	assert.Equal(t, book.ID, row.BookID)
	assert.Equal(t, "active", row.Status)
	assert.Equal(t, "cus_test_1", row.StripeCustomerID)

	var updated types.Book
	require.NoError(t, db.First(&updated, "id = ?", book.ID).Error)
	require.NotNil(t, updated.FeaturedUntil)

	// A renewal updates the same row instead of inserting a second one.
	sub.Status = stripe.SubscriptionStatusPastDue
	status, _ = p.handleEvent(stripeEvent("invoice.payment_succeeded", `{"subscription":"sub_test_1"}`))
	require.Equal(t, http.StatusOK, status)

	var count int64
	db.Model(&types.Subscription{}).Count(&count)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.First(&row, "stripe_subscription_id = ?", "sub_test_1").Error)
	assert.Equal(t, "past_due", row.Status)
}

func TestSubscriptionStatusUpdate(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com", false)

	now := time.Now()
	row := types.Subscription{
		ID:                   "local-sub",
		UserID:               user.ID,
		BookID:               "book-1",
		StripeSubscriptionID: "sub_test_2",
		Status:               "active",
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	require.NoError(t, db.Create(&row).Error)

	p := testPayments(db, nil)
	status, _ := p.handleEvent(stripeEvent("customer.subscription.deleted",
		`{"id":"sub_test_2","status":"canceled"}`))
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, db.First(&row, "stripe_subscription_id = ?", "sub_test_2").Error)
	assert.Equal(t, "canceled", row.Status)
}

func TestUnhandledEventIsAcknowledged(t *testing.T) {
	db := newTestDB(t)
	p := testPayments(db, nil)

	status, msg := p.handleEvent(stripeEvent("charge.refunded", `{}`))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "event not handled", msg)
}

func TestCheckoutUnavailableWithoutStripeKey(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "owner@example.com", false)
	seedBook(t, db, "B000000001", &user.ID, timeNowTrunc())

	r := gin.New()
	p := NewPayments(db, config.Config{})
	r.POST("/checkout/session", asUser(user.ID), p.CheckoutSession)

	req := httptest.NewRequest(http.MethodPost, "/checkout/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "payment system unavailable")
}

func TestWebhookUnavailableWithoutSecret(t *testing.T) {
	db := newTestDB(t)

	r := gin.New()
	p := NewPayments(db, config.Config{})
	r.POST("/webhooks/stripe", p.Webhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
