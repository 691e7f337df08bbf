package types

import "time"

// Users
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:256;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:128;not null"`
	TikTokHandle string `gorm:"size:64"`
	Admin        bool   `gorm:"default:false"`
	CreatedAt    time.Time
}

// Book submissions. The ASIN is the global identity; a duplicate insert is a
// conflict, surfaced by the unique index rather than an application pre-check.
type Book struct {
	ID            string  `gorm:"primaryKey;size:36"`
	ASIN          string  `gorm:"column:asin;size:10;uniqueIndex;not null"`
	Title         *string `gorm:"size:512"`
	Author        *string `gorm:"size:256"`
	CoverURL      *string `gorm:"size:1024"`
	Category      string  `gorm:"size:64"`
	TikTokURL     *string `gorm:"size:512"`
	CreatedBy     *string `gorm:"size:36;index"`
	FeaturedUntil *time.Time
	CreatedAt     time.Time
	Votes         []Vote `gorm:"foreignKey:BookID"`
}

// Votes for the current cycle. VoterID is either a user ID or an anonymous
// cookie token; the (book, voter) unique index is the dedup guard.
type Vote struct {
	ID          string  `gorm:"primaryKey;size:36"`
	BookID      string  `gorm:"size:36;not null;uniqueIndex:uk_votes_book_voter,priority:1"`
	VoterID     string  `gorm:"size:64;not null;uniqueIndex:uk_votes_book_voter,priority:2"`
	UserID      *string `gorm:"size:36;index"`
	IsAnonymous bool    `gorm:"default:false"`
	CreatedAt   time.Time
	Book        Book `gorm:"foreignKey:BookID"`
}

// Weekly winner archive, written only by the weekly reset. The
// (book, week_start) unique index keeps a retried reset from double-archiving.
type WeeklyWinner struct {
	ID             string    `gorm:"primaryKey;size:36"`
	BookID         string    `gorm:"size:36;not null;uniqueIndex:uk_winners_book_week,priority:1"`
	WeekStart      time.Time `gorm:"not null;uniqueIndex:uk_winners_book_week,priority:2"`
	WeekEnd        time.Time `gorm:"not null"`
	FinalVoteCount int64     `gorm:"not null"`
	Position       int       `gorm:"not null"`
	CreatedAt      time.Time
	Book           Book `gorm:"foreignKey:BookID"`
}

// Stripe subscriptions for recurring featured placement. Updated only by
// webhook processing, never by the ranking engine.
type Subscription struct {
	ID                   string `gorm:"primaryKey;size:36"`
	UserID               string `gorm:"size:36;index;not null"`
	BookID               string `gorm:"size:36;index;not null"`
	StripeSubscriptionID string `gorm:"size:128;uniqueIndex;not null"`
	StripeCustomerID     string `gorm:"size:128"`
	Status               string `gorm:"size:32;not null"` // active, canceled, past_due, incomplete
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
