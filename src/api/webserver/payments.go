package webserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowleaf/booktokviral/src/api/config"
	"github.com/glowleaf/booktokviral/src/api/types"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/subscription"
	"github.com/stripe/stripe-go/v78/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	featuredPriceCents   = 999 // $9.99
	featuredDurationDays = 7
)

type Payments struct {
	db  *gorm.DB
	cfg config.Config

	// Indirection for webhook tests; production resolves via the Stripe API.
	getSubscription func(id string) (*stripe.Subscription, error)
}

func NewPayments(db *gorm.DB, cfg config.Config) Payments {
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
	}
	return Payments{
		db:  db,
		cfg: cfg,
		getSubscription: func(id string) (*stripe.Subscription, error) {
			return subscription.Get(id, nil)
		},
	}
}

func (p Payments) configured() bool { return p.cfg.StripeSecretKey != "" }

func (p Payments) loadBook(c *gin.Context) (*types.Book, bool) {
	var req struct {
		BookID string `json:"bookId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return nil, false
	}
	var book types.Book
	if err := p.db.First(&book, "id = ?", req.BookID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "book not found"})
		return nil, false
	}
	return &book, true
}

func (p Payments) bookDisplayName(book *types.Book) string {
	if book.Title != nil && *book.Title != "" {
		return *book.Title
	}
	return book.ASIN
}

// CheckoutSession starts a one-time $9.99 checkout for a 7-day feature.
func (p Payments) CheckoutSession(c *gin.Context) {
	if !p.configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "payment system unavailable"})
		return
	}
	book, ok := p.loadBook(c)
	if !ok {
		return
	}
	userID := c.GetString("userID")

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Feature Book: " + p.bookDisplayName(book)),
					Description: stripe.String(fmt.Sprintf("Feature your book at the top of BookTok Viral for %d days", featuredDurationDays)),
				},
				UnitAmount: stripe.Int64(featuredPriceCents),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(p.cfg.SiteURL + "/books/" + book.ASIN + "?featured=true"),
		CancelURL:  stripe.String(p.cfg.SiteURL + "/books/" + book.ASIN),
	}
	params.AddMetadata("book_id", book.ID)
	params.AddMetadata("book_asin", book.ASIN)
	params.AddMetadata("user_id", userID)

	s, err := session.New(params)
	if err != nil {
		log.Printf("stripe checkout session: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"err": "payment provider error, try again later"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": s.ID})
}

// CheckoutSubscription starts a recurring weekly-feature checkout. Metadata is
// copied onto the subscription so webhook renewals can find the book without
// listing checkout sessions.
func (p Payments) CheckoutSubscription(c *gin.Context) {
	if !p.configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "payment system unavailable"})
		return
	}
	book, ok := p.loadBook(c)
	if !ok {
		return
	}
	userID := c.GetString("userID")

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Weekly Featured: " + p.bookDisplayName(book)),
					Description: stripe.String("Keep your book featured at the top of BookTok Viral, renewed weekly"),
				},
				UnitAmount: stripe.Int64(featuredPriceCents),
				Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
					Interval: stripe.String("week"),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{},
		SuccessURL:       stripe.String(p.cfg.SiteURL + "/books/" + book.ASIN + "?featured=true"),
		CancelURL:        stripe.String(p.cfg.SiteURL + "/books/" + book.ASIN),
	}
	params.AddMetadata("book_id", book.ID)
	params.AddMetadata("book_asin", book.ASIN)
	params.AddMetadata("user_id", userID)
	params.AddMetadata("subscription_type", "weekly_featured")
	params.SubscriptionData.AddMetadata("book_id", book.ID)
	params.SubscriptionData.AddMetadata("user_id", userID)

	s, err := session.New(params)
	if err != nil {
		log.Printf("stripe subscription session: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"err": "payment provider error, try again later"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": s.ID})
}

// Webhook consumes asynchronous payment events. Signature verification is the
// Stripe SDK's job.
func (p Payments) Webhook(c *gin.Context) {
	if !p.configured() || p.cfg.StripeWebhookSecret == "" {
		c.String(http.StatusServiceUnavailable, "webhook not configured")
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusBadRequest, "bad payload")
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), p.cfg.StripeWebhookSecret)
	if err != nil {
		c.String(http.StatusBadRequest, "signature verification failed")
		return
	}

	status, msg := p.handleEvent(event)
	c.String(status, msg)
}

func (p Payments) handleEvent(event stripe.Event) (int, string) {
	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return http.StatusBadRequest, "bad event payload"
		}
		bookID, userID := sess.Metadata["book_id"], sess.Metadata["user_id"]
		if bookID == "" || userID == "" {
			return http.StatusBadRequest, "missing metadata"
		}
		if sess.Metadata["subscription_type"] == "weekly_featured" {
			// Recurring purchase; the invoice.payment_succeeded event does
			// the featuring so renewals and first payments share one path.
			return http.StatusOK, "subscription checkout completed"
		}
		if err := p.featureBook(bookID, userID); err != nil {
			return http.StatusInternalServerError, "database error"
		}
		return http.StatusOK, "one-time payment processed"

	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return http.StatusBadRequest, "bad event payload"
		}
		if inv.Subscription == nil {
			return http.StatusOK, "not a subscription invoice"
		}
		sub, err := p.getSubscription(inv.Subscription.ID)
		if err != nil {
			log.Printf("retrieve subscription %s: %v", inv.Subscription.ID, err)
			return http.StatusBadGateway, "subscription lookup failed"
		}
		bookID, userID := sub.Metadata["book_id"], sub.Metadata["user_id"]
		if bookID == "" || userID == "" {
			return http.StatusBadRequest, "missing metadata"
		}
		if err := p.upsertSubscription(sub, bookID, userID); err != nil {
			return http.StatusInternalServerError, "subscription database error"
		}
		if err := p.featureBook(bookID, userID); err != nil {
			return http.StatusInternalServerError, "database error"
		}
		return http.StatusOK, "subscription payment processed"

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return http.StatusBadRequest, "bad event payload"
		}
		err := p.db.Model(&types.Subscription{}).
			Where("stripe_subscription_id = ?", sub.ID).
			Updates(map[string]interface{}{
				"status":     string(sub.Status),
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return http.StatusInternalServerError, "subscription update error"
		}
		return http.StatusOK, "subscription status updated"
	}

	return http.StatusOK, "event not handled"
}

// featureBook extends the feature window, scoped to the paying owner.
func (p Payments) featureBook(bookID, userID string) error {
	until := time.Now().AddDate(0, 0, featuredDurationDays)
	return p.db.Model(&types.Book{}).
		Where("id = ? AND created_by = ?", bookID, userID).
		Update("featured_until", until).Error
}

func (p Payments) upsertSubscription(sub *stripe.Subscription, bookID, userID string) error {
	periodStart := time.Unix(sub.CurrentPeriodStart, 0)
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	row := types.Subscription{
		ID:                   uuid.NewString(),
		UserID:               userID,
		BookID:               bookID,
		StripeSubscriptionID: sub.ID,
		StripeCustomerID:     customerID,
		Status:               string(sub.Status),
		CurrentPeriodStart:   &periodStart,
		CurrentPeriodEnd:     &periodEnd,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	return p.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "current_period_start", "current_period_end", "updated_at",
		}),
	}).Create(&row).Error
}
