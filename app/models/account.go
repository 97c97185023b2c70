package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

const (
	PlanFree          = "free"
	PlanPro           = "pro"
	PlanInstitutional = "institutional"
)

const (
	SubscriptionStatusNone   = "none"
	SubscriptionStatusActive = "active"
)

// Account is the billable entity owning quota and subscription state.
type Account struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Email              string     `gorm:"uniqueIndex;type:varchar(200);not null" json:"email" validate:"required,email,max=200"`
	Role               string     `gorm:"type:varchar(20);not null;default:'user'" json:"role" validate:"oneof=user admin"`
	PlanTier           string     `gorm:"type:varchar(20);not null;default:'free'" json:"plan_tier" validate:"oneof=free pro institutional"`
	QuotaUsed          int        `gorm:"not null;default:0" json:"quota_used" validate:"gte=0"`
	SubscriptionStatus string     `gorm:"type:varchar(20);not null;default:'none'" json:"subscription_status" validate:"oneof=none active"`
	SubscriptionPlan   string     `gorm:"type:varchar(20);not null;default:''" json:"subscription_plan,omitempty"`
	SubscriptionStart  *time.Time `gorm:"type:timestamp;default:null" json:"subscription_start,omitempty"`
	SubscriptionEnd    *time.Time `gorm:"type:timestamp;default:null" json:"subscription_end,omitempty"`
	ExternalCustomerID string     `gorm:"type:varchar(191);not null;default:''" json:"-"`
	APIKeyHash         string     `gorm:"type:char(64);not null;default:'';index" json:"-"`
	APIKeyPrefix       string     `gorm:"type:varchar(20);not null;default:''" json:"api_key_prefix"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Account) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// NewAccount builds a free-tier account with a fresh API key. The raw key is
// returned once and only its hash is kept on the struct.
func NewAccount(name, email string) (*Account, string, error) {
	a := &Account{
		Name:               strings.TrimSpace(name),
		Email:              strings.ToLower(strings.TrimSpace(email)),
		Role:               ROLE_USER,
		PlanTier:           PlanFree,
		SubscriptionStatus: SubscriptionStatusNone,
	}
	if err := a.Validate(); err != nil {
		return nil, "", err
	}
	key, err := a.IssueAPIKey()
	if err != nil {
		return nil, "", err
	}
	return a, key, nil
}

// HasCustomer reports whether the payment processor customer was already provisioned.
func (a *Account) HasCustomer() bool {
	return strings.TrimSpace(a.ExternalCustomerID) != ""
}

// IsAdmin reports whether the account carries the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == ROLE_ADMIN
}

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const apiKeyPrefix = "exf_"

// IssueAPIKey generates a new API key and stores its hash and prefix.
// Callers must persist the account afterwards.
func (a *Account) IssueAPIKey() (string, error) {
	rawKey, prefix, hash, err := generateAPIKeyMaterial()
	if err != nil {
		return "", err
	}
	a.APIKeyHash = hash
	a.APIKeyPrefix = prefix
	return rawKey, nil
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateAPIKeyMaterial() (string, string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", err
	}
	encoded := strings.ToLower(apiKeyEncoding.EncodeToString(b))
	rawKey := apiKeyPrefix + encoded
	if len(rawKey) < 12 {
		return "", "", "", fmt.Errorf("api key generation failed: key too short")
	}
	prefix := rawKey[:min(len(rawKey), 16)]
	return rawKey, prefix, HashAPIKey(rawKey), nil
}
