// Package staff provides the staff directory: the shop employees that
// notification rules address directly or by role.
package staff

import (
	"net/http"

	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
	"github.com/rai/shop-workflow-go/modules/shared/transaction"
	"github.com/rai/shop-workflow-go/modules/staff/application/commands"
	"github.com/rai/shop-workflow-go/modules/staff/application/queries"
	"github.com/rai/shop-workflow-go/modules/staff/domain"
	httphandler "github.com/rai/shop-workflow-go/modules/staff/infrastructure/http"
)

// Module is the public API for the staff bounded context.
// External communication: HTTP API (RegisterRoutes)
// Cross-module communication: contracts.StaffDirectory (Directory)
type Module interface {
	RegisterRoutes(mux *http.ServeMux)
	Directory() contracts.StaffDirectory
}

type Config struct {
	Repository domain.Repository
	TxScope    transaction.Scope
}

type module struct {
	handlers  httphandler.Handlers
	directory *queries.Directory
}

func New(cfg Config) Module {
	txScope := cfg.TxScope
	if txScope == nil {
		txScope = transaction.Direct{}
	}

	return &module{
		handlers: httphandler.Handlers{
			Register:   commands.NewRegisterStaffHandler(cfg.Repository, txScope),
			Deactivate: commands.NewDeactivateStaffHandler(cfg.Repository, txScope),
			ChangeRole: commands.NewChangeRoleHandler(cfg.Repository, txScope),
			Get:        queries.NewGetStaffHandler(cfg.Repository),
			List:       queries.NewListStaffHandler(cfg.Repository),
		},
		directory: queries.NewDirectory(cfg.Repository),
	}
}

func (m *module) RegisterRoutes(mux *http.ServeMux) {
	httphandler.RegisterRoutes(mux, m.handlers)
}

func (m *module) Directory() contracts.StaffDirectory { return m.directory }
