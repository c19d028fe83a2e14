package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/authz"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/domain"
)

// GrantSource supplies the externally managed role grant table.
type GrantSource interface {
	LoadGrants(ctx context.Context) (map[domain.UserRole][]string, error)
}

// GrantRefresher keeps the permission resolver in sync with storage so
// grant changes take effect without a restart.
type GrantRefresher struct {
	Source   GrantSource
	Resolver *authz.Resolver
	Logger   *slog.Logger
	Period   time.Duration
}

// Run loads the table once, then refreshes on a ticker until ctx is done.
// A failed refresh keeps the previous table.
func (g GrantRefresher) Run(ctx context.Context) {
	g.refresh(ctx)

	period := g.Period
	if period <= 0 {
		period = time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.refresh(ctx)
		}
	}
}

func (g GrantRefresher) refresh(ctx context.Context) {
	grants, err := g.Source.LoadGrants(ctx)
	if err != nil {
		g.Logger.Error("refresh role grants", "err", err)
		return
	}
	g.Resolver.Replace(grants)
}
