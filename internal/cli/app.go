package cli

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-agent-go/internal/config"
	"github.com/cmlabs-hris/attendance-agent-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/hrisapi"
	"github.com/cmlabs-hris/attendance-agent-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-agent-go/internal/repository/postgresql"
	sqliterepo "github.com/cmlabs-hris/attendance-agent-go/internal/repository/sqlite"
	"github.com/cmlabs-hris/attendance-agent-go/internal/service/attendance"
	syncservice "github.com/cmlabs-hris/attendance-agent-go/internal/service/sync"
)

// app wires the store, backend client, and services shared by the
// serve, sync, and status commands.
type app struct {
	cfg *config.Config

	queue  punch.QueueRepository
	states punch.DayStateRepository
	client *hrisapi.Client

	attendanceService punch.AttendanceService
	engine            *syncservice.Engine
	hub               *sse.Hub

	close func()
}

func buildApp(cfg *config.Config) (*app, error) {
	var (
		queue   punch.QueueRepository
		states  punch.DayStateRepository
		closeFn func()
	)

	switch cfg.Store.Driver {
	case "sqlite":
		db, err := database.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		queue = sqliterepo.NewQueueRepository(db)
		states = sqliterepo.NewDayStateRepository(db)
		closeFn = func() { _ = db.Close() }
	case "postgres":
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres store: %w", err)
		}
		if err := postgresql.EnsureSchema(context.Background(), db); err != nil {
			db.Pool.Close()
			return nil, fmt.Errorf("failed to apply postgres schema: %w", err)
		}
		queue = postgresql.NewQueueRepository(db)
		states = postgresql.NewDayStateRepository(db)
		closeFn = func() { db.Pool.Close() }
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	client := hrisapi.NewClient(cfg.API)
	gate := attendance.NewCooldownGate(states)
	hub := sse.NewHub()

	return &app{
		cfg:               cfg,
		queue:             queue,
		states:            states,
		client:            client,
		attendanceService: attendance.NewAttendanceService(gate, queue, states, client),
		engine:            syncservice.NewEngine(queue, states, client, hub),
		hub:               hub,
		close:             closeFn,
	}, nil
}
