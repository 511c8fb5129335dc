// Command workflowcheck composes the workflow of a deployment configuration
// and prints its transition table. Configuration errors exit non-zero, so
// the check can gate a rollout.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rai/shop-workflow-go/internal/platform/config"
	"github.com/rai/shop-workflow-go/modules/orders"
	"github.com/rai/shop-workflow-go/modules/orders/infrastructure/persistence"
	"github.com/rai/shop-workflow-go/modules/orders/workflow/catalog"
)

func main() {
	configPath := flag.String("config", "", "path to the deployment YAML (defaults when empty)")
	quiet := flag.Bool("q", false, "only validate, do not print the table")
	flag.Parse()

	if err := run(os.Stdout, *configPath, *quiet); err != nil {
		fmt.Fprintf(os.Stderr, "workflowcheck: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, configPath string, quiet bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine, err := orders.BuildMachine(orders.WorkflowConfig{
		Modules:           cfg.Workflow.Modules,
		Guards:            cfg.Workflow.Guards,
		ExtraKeys:         cfg.Workflow.ExtraKeys,
		MaxAutomaticDepth: cfg.Workflow.MaxAutomaticDepth,
		GuardTimeout:      cfg.Workflow.GuardTimeout,
		BodyTimeout:       cfg.Workflow.BodyTimeout,
	}, catalog.Dependencies{Deliveries: persistence.NewInMemoryDeliveryRepository()}, nil, logger)
	if err != nil {
		return err
	}

	if quiet {
		return nil
	}
	fmt.Fprintf(w, "modules: %v\n\n", machine.Table().Modules())
	return machine.Table().Print(w)
}
