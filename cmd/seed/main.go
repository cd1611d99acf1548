package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/stellaboard/stellaboard/app/models"
	"github.com/stellaboard/stellaboard/app/repository"
	"github.com/stellaboard/stellaboard/internal/pkg/database"
	"github.com/stellaboard/stellaboard/internal/pkg/env"
)

// guestData mirrors the demo research export consumed by the seeder.
type guestData struct {
	ScriptSuggestion struct {
		Scripts json.RawMessage `json:"scripts"`
	} `json:"script_suggestion"`
	OverallStrategy    json.RawMessage `json:"overall_strategy"`
	UserResearch       json.RawMessage `json:"user_research_json"`
	CompetitorResearch json.RawMessage `json:"competitor_research_json"`
	NicheResearch      json.RawMessage `json:"niche_research_json"`
	TwitterLatest      json.RawMessage `json:"twitterLatest_research_json"`
	TwitterTop         json.RawMessage `json:"twitterTop_research_json"`
}

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())

	if err := seedPlans(); err != nil {
		log.Fatalf("Seeding plans failed: %v", err)
	}
	if err := seedGuest(); err != nil {
		log.Fatalf("Seeding guest failed: %v", err)
	}
	log.Println("Seeding completed")
}

func seedPlans() error {
	repos := repository.GetGlobalRepositories()

	plans := []struct {
		plan    models.Plan
		product *models.PaymentProduct
	}{
		{
			plan: models.Plan{Name: "Free", Tier: 0},
		},
		{
			plan: models.Plan{
				Name:                "Creator",
				Tier:                1,
				MonthlyStellasGrant: 100,
			},
			product: &models.PaymentProduct{
				Type:              models.PaymentProductTypeSubscription,
				Price:             900,
				Currency:          "USD",
				ProviderProductID: "prod_creator_monthly",
			},
		},
		{
			plan: models.Plan{
				Name:                     "Pro",
				Tier:                     2,
				MonthlyStellasGrant:      300,
				CompetitorAnalysisAccess: true,
				AIConsultantAccess:       true,
				DailyAutoAnalysisEnabled: true,
			},
			product: &models.PaymentProduct{
				Type:              models.PaymentProductTypeSubscription,
				Price:             2900,
				Currency:          "USD",
				ProviderProductID: "prod_pro_monthly",
			},
		},
	}

	for i := range plans {
		p := &plans[i]
		if err := repos.Plan.Upsert(&p.plan); err != nil {
			return fmt.Errorf("upsert plan %s: %w", p.plan.Name, err)
		}
		log.Printf("Seeded plan %s (id=%d)", p.plan.Name, p.plan.ID)

		if p.product != nil {
			p.product.PlanID = &p.plan.ID
			if err := repos.Plan.UpsertPaymentProduct(p.product); err != nil {
				return fmt.Errorf("upsert product %s: %w", p.product.ProviderProductID, err)
			}
		}
	}

	// One-off Stella packs, not bound to a plan
	packs := []models.PaymentProduct{
		{Type: models.PaymentProductTypeTopup, Price: 500, Currency: "USD", ProviderProductID: "prod_stella_pack_50", StellaAmount: 50},
		{Type: models.PaymentProductTypeTopup, Price: 1800, Currency: "USD", ProviderProductID: "prod_stella_pack_200", StellaAmount: 200},
	}
	for i := range packs {
		if err := repos.Plan.UpsertPaymentProduct(&packs[i]); err != nil {
			return fmt.Errorf("upsert product %s: %w", packs[i].ProviderProductID, err)
		}
	}

	return nil
}

func seedGuest() error {
	guestEmail := env.GetEnv("GUEST_EMAIL", "")
	if guestEmail == "" {
		return errors.New("GUEST_EMAIL env var not set")
	}
	log.Printf("Seeding guest user: %s", guestEmail)

	repos := repository.GetGlobalRepositories()

	user, err := repos.User.GetByEmail(guestEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = models.CreateUser("Guest User", guestEmail, env.GetEnv("GUEST_PASSWORD", "guest-only"))
		if err != nil {
			return err
		}
		user.EmailVerified = true
		user.AvatarURL = "https://api.dicebear.com/7.x/avataaars/svg?seed=Guest"
		if err := repos.User.Create(user); err != nil {
			return err
		}
		log.Printf("Created guest user id=%d", user.ID)
	} else if err != nil {
		return err
	}

	const username = "chatgptricks"
	account, err := repos.SocialAccount.GetByUserAndUsername(user.ID, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = &models.SocialAccount{UserID: user.ID, Username: username}
		if err := repos.SocialAccount.Create(account); err != nil {
			return err
		}
		log.Printf("Created social account %s", username)
	} else if err != nil {
		return err
	}

	dataPath := env.GetEnv("GUEST_DATA_PATH", "guest_data.json")
	raw, err := os.ReadFile(dataPath)
	if err != nil {
		log.Printf("No demo research seeded, %s not readable: %v", dataPath, err)
		return nil
	}

	// The export may be a single object or an array; take the first item.
	var items []guestData
	if err := json.Unmarshal(raw, &items); err != nil {
		var single guestData
		if err := json.Unmarshal(raw, &single); err != nil {
			return fmt.Errorf("parse %s: %w", dataPath, err)
		}
		items = []guestData{single}
	}
	if len(items) == 0 {
		return fmt.Errorf("%s contains no data", dataPath)
	}
	data := items[0]

	research := &models.Research{
		SocialAccountID:    account.ID,
		ScriptSuggestion:   &models.ScriptSuggestion{Scripts: rawString(data.ScriptSuggestion.Scripts, "[]")},
		OverallStrategy:    &models.OverallStrategy{Data: rawString(data.OverallStrategy, "{}")},
		UserResearch:       &models.UserResearch{Data: rawString(data.UserResearch, "{}")},
		CompetitorResearch: &models.CompetitorResearch{Data: rawString(data.CompetitorResearch, "{}")},
		NicheResearch:      &models.NicheResearch{Data: rawString(data.NicheResearch, "{}")},
		TwitterResearch: &models.TwitterResearch{
			LatestData: rawString(data.TwitterLatest, "{}"),
			TopData:    rawString(data.TwitterTop, "{}"),
		},
	}
	if err := repos.Research.ReplaceLatest(account.ID, research); err != nil {
		return err
	}
	log.Printf("Seeded demo research id=%d", research.ID)

	return nil
}

func rawString(raw json.RawMessage, def string) string {
	if len(raw) == 0 {
		return def
	}
	return string(raw)
}
