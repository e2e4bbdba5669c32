package identity

import (
	"context"

	"github.com/smallbiznis/facture/internal/identity/domain"
	"github.com/smallbiznis/facture/internal/identity/local"
	"github.com/smallbiznis/facture/internal/identity/password"
	"github.com/smallbiznis/facture/internal/identity/repository"
	"go.uber.org/fx"
)

// Module wires the local identity provider.
var Module = fx.Module("identity",
	fx.Provide(
		password.NewVerifier,
		repository.New,
		local.NewProvider,
		func(p *local.Provider) domain.Provider { return p },
	),
	fx.Invoke(registerStartup),
)

func registerStartup(lc fx.Lifecycle, p *local.Provider) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Start(ctx)
			return nil
		},
	})
}
