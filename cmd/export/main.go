package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/config"
	"github.com/jmquispe/viaticos-core/internal/container"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
	"github.com/jmquispe/viaticos-core/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	employeeID := flag.String("employee", "", "employee code to export")
	flag.Parse()

	if *employeeID == "" {
		fmt.Fprintln(os.Stderr, "usage: export -employee <code> [-config <path>]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	c, err := container.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		log.Fatal("Failed to start container", zap.Error(err))
	}
	defer c.Close()

	services := c.Services()
	repos := c.Repositories()

	summary, err := services.Dashboard.EmployeeMonth(ctx, *employeeID)
	if err != nil {
		log.Fatal("Failed to compute monthly summary", zap.Error(err))
	}

	reports, err := repos.Report.ListByEmployee(ctx, *employeeID, 1000, 0)
	if err != nil {
		log.Fatal("Failed to list reports", zap.Error(err))
	}

	states := make(map[int64]string)
	catalog, err := repos.State.ListByProcess(ctx, entity.ProcessExpenseReport)
	if err != nil {
		log.Fatal("Failed to load state catalog", zap.Error(err))
	}
	for _, state := range catalog {
		states[state.ID] = state.Description
	}

	path, err := services.Export.MonthlySummary(summary, reports, states)
	if err != nil {
		log.Fatal("Failed to export monthly summary", zap.Error(err))
	}

	log.Info("Export complete",
		zap.String("employee", *employeeID),
		zap.String("path", path))
	fmt.Println(path)
}
