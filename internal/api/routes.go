package api

import (
	"net/http"

	"github.com/JaimeStill/triage/internal/chat"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/escalation"
	"github.com/JaimeStill/triage/internal/triage"
	"github.com/JaimeStill/triage/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) []routes.Group {
	groups := []routes.Group{
		domain.Complaints.Handler(runtime.Authorizer, runtime.MaxBody).Routes(),
		triage.NewHandler(runtime.Logger, runtime.MaxBody).Routes(),
		chat.NewHandler(
			domain.Chat,
			runtime.Logger,
			runtime.MaxBody,
			cfg.Chat.Origins,
			runtime.Lifecycle.Context(),
		).Routes(),
		escalation.NewHandler(domain.Escalation, domain.Eligible, runtime.Logger).Routes(),
	}

	routes.Register(mux, groups...)
	return groups
}
