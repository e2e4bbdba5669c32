package subuser

import (
	"github.com/smallbiznis/facture/internal/subuser/repository"
	"github.com/smallbiznis/facture/internal/subuser/service"
	"go.uber.org/fx"
)

// Module wires the sub-user directory.
var Module = fx.Module("subuser",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
