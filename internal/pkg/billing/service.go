package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/internal/pkg/stella"
)

// DefaultProvider names the payment provider webhooks arrive from.
const DefaultProvider = "stellapay"

var (
	// ErrInvalidSignature is returned when a webhook body fails signature verification.
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
	// ErrUnknownProduct is returned when a webhook references a product that was never seeded.
	ErrUnknownProduct = errors.New("billing: unknown payment product")
)

// Service applies payment-provider webhooks to local billing state: topup
// purchases credit the wallet, subscription events sync the subscriptions
// table and grant the monthly Stella allowance.
type Service struct {
	repo   Repository
	ledger *stella.Ledger
	secret string
}

// NewService creates a billing service from injected dependencies.
func NewService(repo Repository, ledger *stella.Ledger, webhookSecret string) *Service {
	return &Service{repo: repo, ledger: ledger, secret: webhookSecret}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, ledger *stella.Ledger, webhookSecret string) *Service {
	return NewService(NewRepository(db), ledger, webhookSecret)
}

// ProcessWebhook verifies, records and applies one webhook delivery. Replays
// of an already-processed event are acknowledged without re-applying.
func (s *Service) ProcessWebhook(ctx context.Context, body []byte, signatureHeader string) error {
	valid := VerifyWebhookSignature(body, signatureHeader, s.secret)

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("billing: malformed webhook body: %w", err)
	}

	created, stored, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        DefaultProvider,
		ProviderEventID: payload.ID,
		EventType:       payload.Type,
		PayloadJSON:     string(body),
		SignatureValid:  valid,
	})
	if err != nil {
		return err
	}

	if !valid {
		// Recorded for audit; never applied.
		_ = s.MarkWebhookProcessed(ctx, stored.ID, ErrInvalidSignature)
		return ErrInvalidSignature
	}

	if !created && stored.ProcessedAt != nil {
		// Duplicate delivery of an event that already ran.
		return nil
	}

	handleErr := s.handleEvent(ctx, &payload)
	if err := s.MarkWebhookProcessed(ctx, stored.ID, handleErr); err != nil {
		return err
	}
	return handleErr
}

// handleEvent dispatches one verified webhook payload.
func (s *Service) handleEvent(ctx context.Context, payload *webhookPayload) error {
	email := strings.TrimSpace(payload.Data.UserEmail)
	if email == "" {
		return errors.New("billing: webhook payload missing user_email")
	}
	user, err := s.repo.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("billing: no user for %s: %w", email, err)
	}

	switch payload.Type {
	case EventTopupPurchased:
		return s.applyTopup(user.ID, payload)
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionRenewed, EventSubscriptionCanceled:
		return s.applySubscription(ctx, user.ID, payload)
	default:
		// Unknown event types are recorded and acknowledged.
		return nil
	}
}

// applyTopup credits the purchased Stella pack into the topup bucket.
func (s *Service) applyTopup(userID uint, payload *webhookPayload) error {
	product, err := s.repo.GetPaymentProductByProviderID(strings.TrimSpace(payload.Data.ProductID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownProduct
		}
		return err
	}
	if product.Type != models.PaymentProductTypeTopup {
		return fmt.Errorf("billing: product %s is not a topup pack", product.ProviderProductID)
	}
	if product.StellaAmount <= 0 {
		return fmt.Errorf("billing: product %s has no Stella amount", product.ProviderProductID)
	}

	_, err = s.ledger.Credit(userID, product.StellaAmount, models.WalletBucketTopup, payload.ID, "stella top-up purchase")
	return err
}

// applySubscription syncs the subscription row and, on creation or renewal,
// resets the monthly bucket to the plan's grant.
func (s *Service) applySubscription(ctx context.Context, userID uint, payload *webhookPayload) error {
	_ = ctx
	subscriptionID := strings.TrimSpace(payload.Data.SubscriptionID)
	if subscriptionID == "" {
		return errors.New("billing: webhook payload missing subscription_id")
	}

	product, err := s.repo.GetPaymentProductByProviderID(strings.TrimSpace(payload.Data.ProductID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownProduct
		}
		return err
	}
	if product.Type != models.PaymentProductTypeSubscription || product.PlanID == nil {
		return fmt.Errorf("billing: product %s is not a subscription product", product.ProviderProductID)
	}

	plan, err := s.repo.GetPlanByID(*product.PlanID)
	if err != nil {
		return err
	}

	status := strings.ToLower(strings.TrimSpace(payload.Data.Status))
	if payload.Type == EventSubscriptionCanceled {
		status = models.SubscriptionStatusCanceled
	}
	if status == "" {
		status = models.SubscriptionStatusActive
	}

	sub := &models.Subscription{
		UserID:                 userID,
		PlanID:                 plan.ID,
		Provider:               DefaultProvider,
		ProviderSubscriptionID: subscriptionID,
		Status:                 status,
		CurrentPeriodStart:     payload.Data.CurrentPeriodStart,
		CurrentPeriodEnd:       payload.Data.CurrentPeriodEnd,
		CancelAtPeriodEnd:      payload.Data.CancelAtPeriodEnd,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return err
	}

	// Monthly Stellas reset at each billing cycle; unspent balance does
	// not roll over.
	if payload.Type == EventSubscriptionCreated || payload.Type == EventSubscriptionRenewed {
		if _, err := s.ledger.GrantMonthly(userID, plan.MonthlyStellasGrant, payload.ID); err != nil {
			return err
		}
	}
	return nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("billing: provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("billing: webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
