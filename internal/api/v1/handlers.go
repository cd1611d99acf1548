package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/stellaboard/stellaboard/app/controllers"
	"github.com/stellaboard/stellaboard/internal/pkg/middleware"
)

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// ServerInterface is the contract the v1 route table binds to.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetPlans(c *fiber.Ctx) error
	GetUserProfile(c *fiber.Ctx) error
	GetUserCapabilities(c *fiber.Ctx) error
	GetSocialAccount(c *fiber.Ctx) error
	ListSocialAccounts(c *fiber.Ctx) error
	ConnectSocialAccount(c *fiber.Ctx) error
	GetWallet(c *fiber.Ctx) error
	GetWalletTransactions(c *fiber.Ctx) error
	EstimateAnalysis(c *fiber.Ctx) error
	SubmitAnalysis(c *fiber.Ctx) error
	GetAnalysisStatus(c *fiber.Ctx) error
	ListAnalyses(c *fiber.Ctx) error
	GetLatestResearch(c *fiber.Ctx) error
}

// RegisterHandlers attaches the v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, s ServerInterface) {
	router.Get("/ping", s.GetPing)
	router.Get("/plans", s.GetPlans)

	authed := router.Group("", middleware.RequireAPISessionAuth)
	authed.Get("/user/profile", s.GetUserProfile)
	authed.Get("/user/capabilities", s.GetUserCapabilities)
	authed.Get("/user/social-account", s.GetSocialAccount)
	authed.Get("/user/social-accounts", s.ListSocialAccounts)
	authed.Post("/user/social-account", s.ConnectSocialAccount)
	authed.Get("/wallet", s.GetWallet)
	authed.Get("/wallet/transactions", s.GetWalletTransactions)
	authed.Get("/analysis/estimate", s.EstimateAnalysis)
	authed.Post("/analysis", s.SubmitAnalysis)
	authed.Get("/analysis", s.ListAnalyses)
	authed.Get("/analysis/:id", s.GetAnalysisStatus)
	authed.Get("/research/latest", s.GetLatestResearch)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetPlans returns the public plan catalog.
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	return controllers.HandleGetPlans(c)
}

// GetUserProfile returns account information for the authenticated user.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// GetUserCapabilities returns the caller's effective entitlements.
func (s *APIServer) GetUserCapabilities(c *fiber.Ctx) error {
	return controllers.HandleGetUserCapabilities(c)
}

// GetSocialAccount returns the caller's primary connected profile.
func (s *APIServer) GetSocialAccount(c *fiber.Ctx) error {
	return controllers.HandleGetSocialAccount(c)
}

// ListSocialAccounts returns all of the caller's connected profiles.
func (s *APIServer) ListSocialAccounts(c *fiber.Ctx) error {
	return controllers.HandleListSocialAccounts(c)
}

// ConnectSocialAccount connects a profile by username.
func (s *APIServer) ConnectSocialAccount(c *fiber.Ctx) error {
	return controllers.HandleConnectSocialAccount(c)
}

// GetWallet returns the caller's Stella balances.
func (s *APIServer) GetWallet(c *fiber.Ctx) error {
	return controllers.HandleGetWallet(c)
}

// GetWalletTransactions returns the caller's recent wallet records.
func (s *APIServer) GetWalletTransactions(c *fiber.Ctx) error {
	return controllers.HandleGetWalletTransactions(c)
}

// EstimateAnalysis prices an analysis without running it.
func (s *APIServer) EstimateAnalysis(c *fiber.Ctx) error {
	return controllers.HandleEstimateAnalysis(c)
}

// SubmitAnalysis charges the wallet and queues a run.
func (s *APIServer) SubmitAnalysis(c *fiber.Ctx) error {
	return controllers.HandleSubmitAnalysis(c)
}

// GetAnalysisStatus returns one job's lifecycle state.
func (s *APIServer) GetAnalysisStatus(c *fiber.Ctx) error {
	return controllers.HandleGetAnalysisStatus(c)
}

// ListAnalyses returns the caller's recent jobs.
func (s *APIServer) ListAnalyses(c *fiber.Ctx) error {
	return controllers.HandleListAnalyses(c)
}

// GetLatestResearch returns the caller's current research snapshot.
func (s *APIServer) GetLatestResearch(c *fiber.Ctx) error {
	return controllers.HandleGetLatestResearch(c)
}
