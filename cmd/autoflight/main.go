package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	autoflight "github.com/Pedals2Paddles/ardupilot-solo"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/config"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/core"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/eventlog"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/flightlog"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/groundlink"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/mission"
	"github.com/Pedals2Paddles/ardupilot-solo/internal/sim"
)

var (
	defaultFlagSet = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath     = defaultFlagSet.String("config", "autoflight.yaml", "Decision layer configuration")
	planPath       = defaultFlagSet.String("plan", "plan.yaml", "Mission plan to fly")
	homeLat        = defaultFlagSet.Float64("home_lat", 47.397742, "Simulated home latitude")
	homeLng        = defaultFlagSet.Float64("home_lng", 8.545594, "Simulated home longitude")
)

// logNotifier is the ground-link stand-in when no broker is configured:
// status text goes to the flight log instead of MQTT.
type logNotifier struct {
	log *flightlog.Logger
}

func (n logNotifier) Notify(severity core.Severity, message string) {
	n.log.Infof("statustext [%s] %s", severity, message)
}

func main() {
	defaultFlagSet.Parse(os.Args[1:])

	terminationSignals := make(chan os.Signal, 1)
	signal.Notify(terminationSignals, syscall.SIGINT, syscall.SIGTERM)

	ctx, quitFunc := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := flightlog.New(cfg.Log.Dir, cfg.Log.Level)

	plan, err := mission.LoadPlan(*planPath)
	if err != nil {
		log.Errorf("plan: %v", err)
		os.Exit(1)
	}

	home := core.Location{Lat: *homeLat, Lng: *homeLng}
	vehicle := sim.New(home, log)
	chute := sim.NewParachute(true, 1500, log)

	var notifier core.Notifier = logNotifier{log: log}
	var link *groundlink.Link
	if cfg.GroundLink.Broker != "" {
		client, err := groundlink.NewMQTTClient(groundlink.Options{
			Broker:         cfg.GroundLink.Broker,
			DeviceID:       cfg.GroundLink.DeviceID,
			PrivateKeyPath: cfg.GroundLink.PrivateKeyPath,
			ProjectID:      cfg.GroundLink.ProjectID,
			Region:         cfg.GroundLink.Region,
			RegistryID:     cfg.GroundLink.RegistryID,
		})
		if err != nil {
			log.Errorf("ground link: %v", err)
			os.Exit(1)
		}
		defer client.Disconnect(1000)
		link = groundlink.New(client, cfg.GroundLink.DeviceID, log)
		notifier = link
	}

	clock := autoflight.NewMonotonicClock()
	events, err := eventlog.NewWriter(cfg.EventLog.Path, clock, log)
	if err != nil {
		log.Errorf("event log: %v", err)
		os.Exit(1)
	}
	defer events.Close()

	engine := autoflight.New(cfg, log, autoflight.Ports{
		Arming:     vehicle,
		Attitude:   vehicle,
		Motion:     vehicle,
		Altitude:   vehicle,
		Position:   vehicle,
		Nav:        vehicle,
		Parachute:  chute,
		Rally:      vehicle,
		ServoRelay: sim.NewDevice("servo_relay", log),
		Camera:     sim.NewDevice("camera", log),
		Mount:      sim.NewDevice("mount", log),
		Mission:    plan,
		Notifier:   notifier,
		Events:     events,
		Clock:      clock,
	})

	fc := engine.Context()
	fc.Home = home
	fc.Flags.HomeSet = true
	fc.Mode = core.ModeAuto
	vehicle.BindContext(fc)
	vehicle.Arm()

	if link != nil {
		link.StartTelemetry(ctx, &wg, time.Second, engine.Snapshot)
	}

	// The sim steps and the decision tick share one loop so the model
	// state the ports expose is never read mid-update.
	wg.Add(1)
	go func() {
		defer wg.Done()
		dt := 1.0 / float64(cfg.TickRateHz)
		ticker := time.NewTicker(time.Second / time.Duration(cfg.TickRateHz))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				vehicle.Step(dt)
				engine.Tick()
			}
		}
	}()

	log.Infof("autoflight up, plan of %d commands", plan.Count())
	<-terminationSignals
	log.Infof("shutting down")
	quitFunc()
	wg.Wait()
	log.Infof("signing off")
}
