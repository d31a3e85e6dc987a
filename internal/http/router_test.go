package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/access"
	"server/internal/credential"
	"server/internal/domain"
	"server/internal/http/handlers"
	"server/internal/membership"
	"server/internal/middleware"
	"server/internal/providers/chat"
	"server/internal/quota"
)

func newTestRouter(t *testing.T, production bool) http.Handler {
	t.Helper()

	creds, err := credential.NewManager(credential.Config{Secret: "test-secret"})
	if err != nil {
		t.Fatalf("credential.NewManager() error: %v", err)
	}
	policy, err := access.NewPolicy(map[domain.Section]domain.Tier{
		domain.SectionDaily: domain.TierTrial,
	}, domain.TierYearly)
	if err != nil {
		t.Fatalf("access.NewPolicy() error: %v", err)
	}
	ledger, err := quota.NewMemoryLedger(map[domain.Tier]quota.Limit{
		domain.TierVisitor:   {N: 0},
		domain.TierTrial:     {N: 3},
		domain.TierQuarterly: {N: 20},
		domain.TierYearly:    {N: 50},
		domain.TierLifetime:  {Unlimited: true},
	}, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("quota.NewMemoryLedger() error: %v", err)
	}

	app := &handlers.App{
		Logger:     zerolog.Nop(),
		Resolver:   membership.NewResolver(creds, production, zerolog.Nop()),
		Policy:     policy,
		Ledger:     ledger,
		Chat:       chat.Disabled(),
		Production: production,
	}
	return NewRouter(app, Options{
		Logger:     zerolog.Nop(),
		Production: production,
	})
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t, true)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
}

func TestRouterOverrideHeaderGatedByEnvironment(t *testing.T) {
	type tierDTO struct {
		Tier domain.Tier `json:"tier"`
	}

	request := func(r http.Handler) tierDTO {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/membership", nil)
		req.Header.Set(middleware.OverrideHeader, "lifetime")
		r.ServeHTTP(rec, req)
		var dto tierDTO
		if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return dto
	}

	if got := request(newTestRouter(t, false)).Tier; got != domain.TierLifetime {
		t.Fatalf("dev tier = %q, want lifetime", got)
	}
	if got := request(newTestRouter(t, true)).Tier; got != domain.TierVisitor {
		t.Fatalf("production tier = %q, want visitor (header not even parsed)", got)
	}
}
