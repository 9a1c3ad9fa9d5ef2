package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"ductclean/internal/database"
	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type servicesConfig struct {
	Services []struct {
		Name            string       `yaml:"name"`
		Description     string       `yaml:"description"`
		BasePrice       models.Cents `yaml:"base_price"`
		DurationMinutes int          `yaml:"duration_minutes"`
		IsActive        *bool        `yaml:"is_active"`
	} `yaml:"services"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run upserts the service catalog from YAML, matching rows by name so
// re-running the seed is safe.
func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		servicesPath = flag.String("services", "configs/services.yaml", "path to services.yaml")
		dbPath       = flag.String("db", "./data/ductclean.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*servicesPath)
	if err != nil {
		return fmt.Errorf("read services: %w", err)
	}
	var cfg servicesConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse services: %w", err)
	}
	if len(cfg.Services) == 0 {
		return fmt.Errorf("no services in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := db.ListServices(ctx, false)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}
	byName := make(map[string]*models.Service, len(existing))
	for _, svc := range existing {
		byName[svc.Name] = svc
	}

	created := 0
	updated := 0
	for _, entry := range cfg.Services {
		if entry.Name == "" {
			continue
		}
		active := true
		if entry.IsActive != nil {
			active = *entry.IsActive
		}

		if current, ok := byName[entry.Name]; ok {
			current.Description = entry.Description
			current.BasePrice = entry.BasePrice
			current.DurationMinutes = entry.DurationMinutes
			current.IsActive = active
			if err = db.UpdateService(ctx, current); err != nil {
				return fmt.Errorf("update %s: %w", entry.Name, err)
			}
			updated++
			continue
		}

		svc := &models.Service{
			ID:              uuid.NewString(),
			Name:            entry.Name,
			Description:     entry.Description,
			BasePrice:       entry.BasePrice,
			DurationMinutes: entry.DurationMinutes,
			IsActive:        active,
		}
		if err = db.CreateService(ctx, svc); err != nil {
			return fmt.Errorf("create %s: %w", entry.Name, err)
		}
		created++
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
