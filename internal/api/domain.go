package api

import (
	"github.com/JaimeStill/triage/internal/chat"
	"github.com/JaimeStill/triage/internal/complaints"
	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/escalation"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Complaints complaints.System
	Chat       *chat.Router
	Escalation *escalation.Machine
	Eligible   escalation.Eligibility
}

// NewDomain creates all domain systems from the API runtime. Complaints are
// persisted in Postgres when the runtime carries a database and kept in
// memory otherwise.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	var store complaints.System
	if runtime.Database != nil {
		store = complaints.New(
			runtime.Database.Connection(),
			runtime.Notifier,
			runtime.Logger,
			runtime.Pagination,
		)
	} else {
		store = complaints.NewMemory(
			runtime.Notifier,
			runtime.Logger,
			runtime.Pagination,
		)
	}

	machine := escalation.New(
		store,
		runtime.Authorizer,
		runtime.Notifier,
		runtime.Logger,
		cfg.Escalation.Concurrency,
	)

	return &Domain{
		Complaints: store,
		Chat:       chat.NewRouter(runtime.Logger),
		Escalation: machine,
		Eligible:   cfg.Escalation.Policy.Eligibility(),
	}
}
