package auth

import (
	"github.com/smallbiznis/facture/internal/auth/service"
	"github.com/smallbiznis/facture/internal/auth/session"
	"github.com/smallbiznis/facture/internal/auth/state"
	"go.uber.org/fx"
)

// Module wires the session establisher, the login state store and the cookie
// session plumbing.
var Module = fx.Module("auth",
	fx.Provide(
		state.NewStore,
		session.NewManager,
		session.NewRegistry,
		service.New,
	),
)
