package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jhoicas/wms-terminal/internal/application/draft"
	"github.com/jhoicas/wms-terminal/internal/application/movement"
	"github.com/jhoicas/wms-terminal/internal/application/scan"
	"github.com/jhoicas/wms-terminal/internal/application/ventanilla"
	"github.com/jhoicas/wms-terminal/internal/clock"
	"github.com/jhoicas/wms-terminal/internal/infrastructure/backend"
	"github.com/jhoicas/wms-terminal/internal/infrastructure/feedback"
	"github.com/jhoicas/wms-terminal/internal/infrastructure/kv"
	"github.com/jhoicas/wms-terminal/internal/interfaces/terminal"
	"github.com/jhoicas/wms-terminal/pkg/config"
	"github.com/jhoicas/wms-terminal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("backend", cfg.Backend.BaseURL).
		Msg("iniciando terminal")

	// Tipo de movimiento de la pantalla: argumento o ENTRY por defecto.
	movType := movement.TypeEntry
	if len(os.Args) > 1 {
		movType = strings.ToUpper(os.Args[1])
		if !movement.ValidType(movType) {
			fmt.Fprintf(os.Stderr, "tipo de movimiento desconocido: %s\n", movType)
			os.Exit(1)
		}
	}

	store, err := kv.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento local")
	}

	clk := clock.NewSystem()
	client := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		DatabaseID: cfg.Backend.DatabaseID,
		Token:      cfg.Backend.Token,
		Timeout:    cfg.Backend.Timeout,
	}, log)

	// Clave de borrador propia por tipo de movimiento: sin interferencia
	// entre pantallas.
	drafts := draft.NewStore(store, "draft:"+strings.ToLower(movType), clk, log,
		draft.WithDebounce(cfg.Draft.Debounce))
	cues := feedback.NewLogSink(log)
	rec := scan.NewReconciler(client, cues, drafts, clk, log)
	submitter := movement.NewSubmitter(client, drafts, cfg.App.DeviceID, log)

	session := terminal.NewSession(terminal.SessionConfig{
		Reconciler:     rec,
		Drafts:         drafts,
		Submitter:      submitter,
		Claims:         client,
		Clock:          clk,
		Log:            log,
		In:             os.Stdin,
		Out:            os.Stdout,
		MovementType:   movType,
		ManualDebounce: cfg.Scan.ManualDebounce,
	})

	poller := ventanilla.NewPoller(client, store, "ventanilla:watermark", session.OnVentanilla, log,
		ventanilla.WithInterval(cfg.Ventanilla.Interval),
		ventanilla.WithPageSize(cfg.Ventanilla.PageSize))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go poller.Run(ctx)

	if err := session.Run(ctx); err != nil {
		log.Error().Err(err).Msg("sesión terminada con error")
	}
	log.Info().Msg("terminal detenido")
}
