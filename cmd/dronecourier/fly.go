package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dronecourier/internal/config"
	"dronecourier/internal/critic"
	"dronecourier/internal/failsafe"
	"dronecourier/internal/gateway"
	"dronecourier/internal/logging"
	"dronecourier/internal/mission"
	"dronecourier/internal/status"
)

var (
	flyConfigPath string
	flySchemaPath string
	flyPrintOnly  bool
	flyTUI        bool
	flyLogFile    string
	flyTick       time.Duration
	flyStatusAddr string
)

var flyCmd = &cobra.Command{
	Use:   "fly",
	Short: "Run one delivery mission",
	Long:  "fly loads a mission configuration and runs the phase controller with the failsafe supervisor until a terminal phase.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flyConfigPath, flySchemaPath)
		if err != nil {
			return err
		}
		if flyTick > 0 {
			cfg.SupervisorTick = config.Duration(flyTick)
		}
		if envTick := os.Getenv("SUPERVISOR_TICK"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return err
			}
			cfg.SupervisorTick = config.Duration(d)
		}

		writer, cleanup, err := newWriters(cfg, flyPrintOnly, flyTUI, flyLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		log := logging.New()
		missionID := fmt.Sprintf("%s-%s", cfg.Name, uuid.New().String()[:8])
		log = logging.ForMission(log, missionID)

		// Simulation adapters stand in for hardware drivers.
		sensors := gateway.NewSimSensors(92).WithBatteryDrain(0.4)
		actuators := gateway.NewSimActuators()

		state := mission.NewState(missionID, 92, mission.Position{
			Lat: cfg.Route.Origin.Lat, Lon: cfg.Route.Origin.Lon, Alt: cfg.Route.Origin.Alt,
		})
		controller := mission.NewController(cfg, state, sensors, actuators, writer)
		supervisor := failsafe.NewSupervisor(cfg, state, sensors)

		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), log))
		defer cancel()

		if flyStatusAddr != "" {
			srv := status.NewServer(state)
			go func() {
				log.Info("status endpoint listening", "addr", flyStatusAddr)
				if err := srv.Start(ctx, flyStatusAddr); err != nil && err != http.ErrServerClosed {
					log.Error("status server failed", "err", err)
				}
			}()
		}

		// Operator abort: first signal posts the maximum-severity directive,
		// a second one tears the run down.
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigs
			log.Warn("operator abort requested")
			state.PostDirective(mission.DirectiveEmergencyManeuver)
			<-sigs
			cancel()
		}()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			supervisor.Run(gctx)
			return nil
		})
		g.Go(func() error {
			defer cancel()
			_, err := controller.Run(gctx)
			return err
		})
		if err := g.Wait(); err != nil && err != context.Canceled {
			return err
		}

		report := critic.Review(state.Export(), state.Snapshot())
		fmt.Print(report)
		return nil
	},
}

func init() {
	flyCmd.Flags().StringVar(&flyConfigPath, "config", "config/mission.yaml", "Path to mission configuration YAML")
	flyCmd.Flags().StringVar(&flySchemaPath, "schema", "schemas/mission.cue", "Path to CUE schema file")
	flyCmd.Flags().BoolVar(&flyPrintOnly, "print-only", false, "Print mission events to STDOUT instead of writing to DB")
	flyCmd.Flags().BoolVar(&flyTUI, "tui", false, "Render mission progress in a terminal UI")
	flyCmd.Flags().StringVar(&flyLogFile, "log-file", "", "Path to export mission events (JSONL)")
	flyCmd.Flags().DurationVar(&flyTick, "tick", 0, "Failsafe supervisor tick interval (e.g. 200ms)")
	flyCmd.Flags().StringVar(&flyStatusAddr, "status-addr", ":8080", "Status endpoint address (empty to disable)")
}
