package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AaronLay10/SentientUI/internal/api"
	"github.com/AaronLay10/SentientUI/internal/components"
	"github.com/AaronLay10/SentientUI/internal/condition"
	"github.com/AaronLay10/SentientUI/internal/config"
	"github.com/AaronLay10/SentientUI/internal/effects"
	"github.com/AaronLay10/SentientUI/internal/events"
	"github.com/AaronLay10/SentientUI/internal/idgen"
	"github.com/AaronLay10/SentientUI/internal/mqtt"
	"github.com/AaronLay10/SentientUI/internal/screen"
	"github.com/AaronLay10/SentientUI/internal/storage/postgres"
	"github.com/AaronLay10/SentientUI/internal/version"
)

const healthInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "hosts/_template/host.yaml", "path to host.yaml")
	strict := flag.Bool("strict", false, "validate literal props against component schemas")
	flag.Parse()

	cfg, err := config.LoadHostConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load host.yaml: %v", err)
	}
	appID := cfg.AppID()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "sdui host starting", map[string]interface{}{
		"service":  "sduihost",
		"hostname": hostname,
		"pid":      os.Getpid(),
		"app_id":   appID,
		"version":  version.Version,
	})

	api.InitMetrics()
	api.SetAppID(appID)
	if err := api.InitAuth(); err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}
	tlsFiles := api.TLSFilesFromEnv(api.TLSFiles{CertFile: cfg.TLS.Cert, KeyFile: cfg.TLS.Key})
	if err := api.InitTLS(tlsFiles); err != nil {
		log.Fatalf("failed to init tls: %v", err)
	}

	var sinks []effects.AnalyticsSink

	// Postgres is optional: without it events stay in memory.
	api.SetPostgresState(false, true)
	if cfg.Postgres.Enabled {
		pgPass, err := config.ResolveSecret("PGPASSWORD")
		if err != nil {
			log.Fatalf("failed to resolve PGPASSWORD: %v", err)
		}
		pg, err := postgres.New(appID, pgPass)
		if err != nil {
			log.Printf("postgres unavailable, continuing without persistence: %v", err)
		} else {
			defer pg.Close()
			events.SetPostgresClient(pg)
			sinks = append(sinks, pg)
			api.SetPostgresState(true, false)
			go monitor(ctx, func() {
				pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				api.SetPostgresState(pg.Ping(pingCtx) == nil, false)
			})
		}
	}

	reg, err := components.Library()
	if err != nil {
		log.Fatalf("failed to build component library: %v", err)
	}
	api.SetRegistryReady(true)

	validator, err := screen.NewValidator()
	if err != nil {
		log.Fatalf("failed to compile screen schema: %v", err)
	}
	intake, err := screen.NewIntake(screen.NewStore(), validator, cfg.ProtocolConstraint())
	if err != nil {
		log.Fatalf("invalid protocol.accept: %v", err)
	}
	for _, path := range cfg.Screens {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("failed to read screen %s: %v", path, err)
			continue
		}
		// Rejections are reported by the intake.
		intake.Accept(data, "file:"+path)
	}

	api.SetMQTTState(false, true)
	if cfg.MQTT.Enabled {
		var feed *mqtt.ScreenFeed
		client := mqtt.NewClient("sduihost-"+appID, func() {
			api.SetMQTTState(true, false)
			if err := feed.Resubscribe(); err != nil {
				log.Printf("mqtt: failed to subscribe to %s: %v", cfg.ScreensTopic(), err)
			}
		})
		feed = mqtt.NewScreenFeed(client, cfg.ScreensTopic(), intake)
		api.SetMQTTState(client.Start(), false)
		defer client.Disconnect()

		sinks = append(sinks, mqtt.NewAnalyticsPublisher(client, cfg.AnalyticsTopic(), appID))
		go monitor(ctx, func() {
			api.SetMQTTState(client.IsConnected(), false)
		})
	}

	hostOpts := []effects.Option{effects.WithAnalytics(sinks...)}
	if cfg.API.BaseURL != "" {
		hostOpts = append(hostOpts, effects.WithFetcher(effects.NewHTTPFetcher(cfg.API.BaseURL, cfg.APITimeout(), cfg.API.AllowedHosts...)))
	}

	conditions, err := condition.NewEvaluator()
	if err != nil {
		log.Fatalf("failed to create condition evaluator: %v", err)
	}

	sessions := effects.NewSessionStore(idgen.UUID{Prefix: "sess_"}, cfg.RootScreen(),
		effects.WithIdleTTL(cfg.SessionTTL()))
	sessions.StartSweep(time.Minute)
	defer sessions.Stop()

	rps, burst := cfg.Limits()
	limiter := api.NewRateLimiter(rps, burst)
	defer limiter.Stop()

	srv := api.NewServer(api.Deps{
		Registry:    reg,
		Intake:      intake,
		Validator:   validator,
		Sessions:    sessions,
		Host:        effects.NewHost(hostOpts...),
		Conditions:  conditions,
		Limiter:     limiter,
		StrictProps: *strict,
	})
	srv.Start(cfg.HTTPPort())

	<-ctx.Done()
	events.Emit("info", "system.shutdown", "sdui host stopping", map[string]interface{}{
		"service": "sduihost",
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown: %v", err)
	}
	events.CloseAllSubscribers()
}

// monitor runs check every healthInterval until ctx is done.
func monitor(ctx context.Context, check func()) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
