package billing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/internal/pkg/stella"
)

type memWalletStore struct {
	wallets map[uint]*models.Wallet
	records []models.WalletTransaction
}

func newMemWalletStore() *memWalletStore {
	return &memWalletStore{wallets: map[uint]*models.Wallet{}}
}

func (s *memWalletStore) GetOrCreate(userID uint) (*models.Wallet, error) {
	if w, ok := s.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	w := &models.Wallet{ID: uint(len(s.wallets) + 1), UserID: userID}
	s.wallets[userID] = w
	cp := *w
	return &cp, nil
}

func (s *memWalletStore) CompareAndApply(userID uint, expectMonthly, expectTopup, newMonthly, newTopup int64, record *models.WalletTransaction) (bool, error) {
	w, ok := s.wallets[userID]
	if !ok || w.MonthlyBalance != expectMonthly || w.TopupBalance != expectTopup {
		return false, nil
	}
	w.MonthlyBalance = newMonthly
	w.TopupBalance = newTopup
	s.records = append(s.records, *record)
	return true, nil
}

func (s *memWalletStore) ListTransactions(userID uint, limit int) ([]models.WalletTransaction, error) {
	return nil, nil
}

func (s *memWalletStore) balance(userID uint) (int64, int64) {
	w := s.wallets[userID]
	if w == nil {
		return 0, 0
	}
	return w.MonthlyBalance, w.TopupBalance
}

type fakeRepo struct {
	users    map[string]*models.User
	products map[string]*models.PaymentProduct
	plans    map[uint]*models.Plan
	subs     []*models.Subscription
	events   map[string]*models.BillingWebhookEvent
	nextID   uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    map[string]*models.User{},
		products: map[string]*models.PaymentProduct{},
		plans:    map[uint]*models.Plan{},
		events:   map[string]*models.BillingWebhookEvent{},
	}
}

func (r *fakeRepo) GetUserByEmail(email string) (*models.User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetPaymentProductByProviderID(providerProductID string) (*models.PaymentProduct, error) {
	if p, ok := r.products[providerProductID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetPlanByID(id uint) (*models.Plan, error) {
	if p, ok := r.plans[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) UpsertSubscription(sub *models.Subscription) error {
	for _, existing := range r.subs {
		if existing.Provider == sub.Provider && existing.ProviderSubscriptionID == sub.ProviderSubscriptionID {
			existing.UserID = sub.UserID
			existing.PlanID = sub.PlanID
			existing.Status = sub.Status
			existing.CurrentPeriodStart = sub.CurrentPeriodStart
			existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
			existing.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
			sub.ID = existing.ID
			return nil
		}
	}
	r.nextID++
	sub.ID = r.nextID
	cp := *sub
	r.subs = append(r.subs, &cp)
	return nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		return false, stored, nil
	}
	r.nextID++
	event.ID = r.nextID
	cp := *event
	r.events[key] = &cp
	return true, &cp, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepo) eventByID(id string) *models.BillingWebhookEvent {
	return r.events[DefaultProvider+"/"+id]
}

type billingFixture struct {
	svc    *Service
	repo   *fakeRepo
	store  *memWalletStore
	secret string
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	repo := newFakeRepo()
	repo.users["pro@example.com"] = &models.User{ID: 1, Email: "pro@example.com"}

	planID := uint(2)
	repo.plans[planID] = &models.Plan{ID: planID, Name: "Pro", Tier: 2, MonthlyStellasGrant: 300}
	repo.products["prod_pro_monthly"] = &models.PaymentProduct{
		ID: 10, PlanID: &planID, Type: models.PaymentProductTypeSubscription,
		ProviderProductID: "prod_pro_monthly",
	}
	repo.products["prod_stella_pack_50"] = &models.PaymentProduct{
		ID: 11, Type: models.PaymentProductTypeTopup,
		ProviderProductID: "prod_stella_pack_50", StellaAmount: 50,
	}

	store := newMemWalletStore()
	secret := "whsec_test"
	return &billingFixture{
		svc:    NewService(repo, stella.NewLedger(store), secret),
		repo:   repo,
		store:  store,
		secret: secret,
	}
}

func webhookBody(t *testing.T, eventID, eventType, productID, subscriptionID, status string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":   eventID,
		"type": eventType,
		"data": map[string]interface{}{
			"user_email":      "pro@example.com",
			"product_id":      productID,
			"subscription_id": subscriptionID,
			"status":          status,
		},
	})
	require.NoError(t, err)
	return body
}

func (fx *billingFixture) deliver(t *testing.T, body []byte) error {
	t.Helper()
	return fx.svc.ProcessWebhook(context.Background(), body, signBody(body, fx.secret))
}

func TestProcessWebhookTopupCreditsTopupBucket(t *testing.T) {
	fx := newBillingFixture(t)
	body := webhookBody(t, "evt_topup_1", EventTopupPurchased, "prod_stella_pack_50", "", "")

	require.NoError(t, fx.deliver(t, body))

	monthly, topup := fx.store.balance(1)
	assert.Equal(t, int64(0), monthly)
	assert.Equal(t, int64(50), topup)

	event := fx.repo.eventByID("evt_topup_1")
	require.NotNil(t, event)
	assert.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ProcessingError)
}

func TestProcessWebhookSubscriptionCreatedGrantsMonthly(t *testing.T) {
	fx := newBillingFixture(t)
	body := webhookBody(t, "evt_sub_1", EventSubscriptionCreated, "prod_pro_monthly", "sub_123", "active")

	require.NoError(t, fx.deliver(t, body))

	require.Len(t, fx.repo.subs, 1)
	sub := fx.repo.subs[0]
	assert.Equal(t, uint(1), sub.UserID)
	assert.Equal(t, uint(2), sub.PlanID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)

	monthly, _ := fx.store.balance(1)
	assert.Equal(t, int64(300), monthly)
}

func TestProcessWebhookRenewalResetsMonthlyBucket(t *testing.T) {
	fx := newBillingFixture(t)
	// Leftover monthly balance from last cycle plus purchased topup.
	fx.store.wallets[1] = &models.Wallet{ID: 1, UserID: 1, MonthlyBalance: 40, TopupBalance: 25}

	body := webhookBody(t, "evt_sub_2", EventSubscriptionRenewed, "prod_pro_monthly", "sub_123", "active")
	require.NoError(t, fx.deliver(t, body))

	monthly, topup := fx.store.balance(1)
	assert.Equal(t, int64(300), monthly)
	assert.Equal(t, int64(25), topup)
}

func TestProcessWebhookCanceledMarksStatusWithoutGrant(t *testing.T) {
	fx := newBillingFixture(t)

	created := webhookBody(t, "evt_sub_3", EventSubscriptionCreated, "prod_pro_monthly", "sub_123", "active")
	require.NoError(t, fx.deliver(t, created))

	canceled := webhookBody(t, "evt_sub_4", EventSubscriptionCanceled, "prod_pro_monthly", "sub_123", "active")
	require.NoError(t, fx.deliver(t, canceled))

	require.Len(t, fx.repo.subs, 1)
	assert.Equal(t, models.SubscriptionStatusCanceled, fx.repo.subs[0].Status)

	// Only the creation grant landed.
	monthly, _ := fx.store.balance(1)
	assert.Equal(t, int64(300), monthly)
}

func TestProcessWebhookUnknownProduct(t *testing.T) {
	fx := newBillingFixture(t)
	body := webhookBody(t, "evt_bad_1", EventTopupPurchased, "prod_never_seeded", "", "")

	err := fx.deliver(t, body)
	assert.ErrorIs(t, err, ErrUnknownProduct)

	event := fx.repo.eventByID("evt_bad_1")
	require.NotNil(t, event)
	assert.NotNil(t, event.ProcessedAt)
	assert.Contains(t, event.ProcessingError, "unknown payment product")
}

func TestProcessWebhookDuplicateDeliveryNotReapplied(t *testing.T) {
	fx := newBillingFixture(t)
	body := webhookBody(t, "evt_topup_2", EventTopupPurchased, "prod_stella_pack_50", "", "")

	require.NoError(t, fx.deliver(t, body))
	require.NoError(t, fx.deliver(t, body))

	_, topup := fx.store.balance(1)
	assert.Equal(t, int64(50), topup)
}

func TestProcessWebhookInvalidSignature(t *testing.T) {
	fx := newBillingFixture(t)
	body := webhookBody(t, "evt_forged_1", EventTopupPurchased, "prod_stella_pack_50", "", "")

	err := fx.svc.ProcessWebhook(context.Background(), body, signBody(body, "wrong-secret"))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Recorded for audit, never applied.
	event := fx.repo.eventByID("evt_forged_1")
	require.NotNil(t, event)
	assert.False(t, event.SignatureValid)
	_, topup := fx.store.balance(1)
	assert.Equal(t, int64(0), topup)
}

func TestProcessWebhookUnknownEventTypeAcknowledged(t *testing.T) {
	fx := newBillingFixture(t)
	body := webhookBody(t, "evt_ping_1", "provider.ping", "", "", "")

	require.NoError(t, fx.deliver(t, body))
	assert.NotNil(t, fx.repo.eventByID("evt_ping_1").ProcessedAt)
}

func TestProcessWebhookMissingEventIDUsesPayloadHash(t *testing.T) {
	fx := newBillingFixture(t)
	body := webhookBody(t, "", EventTopupPurchased, "prod_stella_pack_50", "", "")

	require.NoError(t, fx.deliver(t, body))
	// Re-delivery of the same body hashes to the same event id.
	require.NoError(t, fx.deliver(t, body))

	_, topup := fx.store.balance(1)
	assert.Equal(t, int64(50), topup)
}
