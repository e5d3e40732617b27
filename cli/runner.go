// Command execution for CLI commands.
//
// Information Hiding:
// - Daemon wiring (broker, drivers, planner) hidden
// - Driver selection hidden behind buildDrivers
// - Output formatting hidden

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"theseus/comms"
	"theseus/config"
	"theseus/llm"
	"theseus/logger"
	"theseus/planner"
	"theseus/robot"
	"theseus/storage"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Drivers  string // overrides ROBOT_DRIVERS when set
	MaxIter  int    // overrides PLANNER_MAX_ITERATIONS when positive
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{Verbose: false}
}

// Run starts the firmware daemon: connect to the broker, subscribe to the
// command topic, and serve missions until interrupted.
func Run(ctx context.Context, opts Options) error {
	cfg, provider, err := loadProvider(opts)
	if err != nil {
		return err
	}
	log := logger.New("cli")

	clock := clockwork.NewRealClock()
	motor, rangefinder, releaseDrivers, err := buildDrivers(cfg, opts, clock)
	if err != nil {
		return err
	}
	defer releaseDrivers()

	client := comms.NewClient(comms.ClientConfig{
		BrokerURL: cfg.MQTT.BrokerURL,
		ClientID:  cfg.Robot.ID,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password,
		Log:       logger.New("mqtt"),
	})
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	status := comms.Fanout{
		comms.NewStatusPublisher(client, cfg.MQTT.StatusTopic, cfg.Robot.ID, clock, logger.New("status")),
	}
	if cfg.Webhook.URL != "" {
		status = append(status, comms.NewWebhookSink(cfg.Webhook.URL, cfg.Robot.ID, cfg.Webhook.Timeout, clock, logger.New("webhook")))
	}
	if opts.Verbose {
		status = append(status, comms.ConsoleSink{W: os.Stdout})
	}

	loop, err := buildLoop(cfg, opts, provider, robot.Drivers{
		RobotID:     cfg.Robot.ID,
		Motor:       motor,
		Rangefinder: rangefinder,
		Status:      status,
		Link:        client,
		Clock:       clock,
	}, status, clock)
	if err != nil {
		return err
	}

	runner := &missionRunner{loop: loop, clock: clock, log: logger.New("cli")}
	if cfg.Storage.Path != "" {
		missions, err := storage.OpenSqlite(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open mission log: %w", err)
		}
		defer missions.Close()
		runner.missions = missions
	}

	router := comms.NewRouter(comms.RouterConfig{
		RobotID:    cfg.Robot.ID,
		QueueDepth: cfg.MQTT.QueueDepth,
		Status:     status,
		Log:        logger.New("router"),
	})
	if err := client.Subscribe(cfg.MQTT.CommandTopic, router.Handle); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return router.Serve(ctx, runner)
	})

	status.Publish(fmt.Sprintf("Robot %s online: listening on %s", cfg.Robot.ID, cfg.MQTT.CommandTopic))
	log.Info().
		Str("broker", cfg.MQTT.BrokerURL).
		Str(logger.TopicField, cfg.MQTT.CommandTopic).
		Str("drivers", driverKind(cfg, opts)).
		Msg("firmware ready")

	if err := g.Wait(); err != nil {
		return err
	}

	status.Publish(fmt.Sprintf("Robot %s going offline.", cfg.Robot.ID))
	log.Info().Msg("firmware stopped")
	return nil
}

// Drive runs a single mission from the command line, narrating status to
// stdout. No broker connection is made.
func Drive(ctx context.Context, objective string, opts Options) error {
	cfg, provider, err := loadProvider(opts)
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	motor, rangefinder, releaseDrivers, err := buildDrivers(cfg, opts, clock)
	if err != nil {
		return err
	}
	defer releaseDrivers()

	console := comms.ConsoleSink{W: os.Stdout}
	loop, err := buildLoop(cfg, opts, provider, robot.Drivers{
		RobotID:     cfg.Robot.ID,
		Motor:       motor,
		Rangefinder: rangefinder,
		Status:      console,
		Clock:       clock,
	}, console, clock)
	if err != nil {
		return err
	}

	runner := &missionRunner{loop: loop, clock: clock, log: logger.New("cli")}
	if cfg.Storage.Path != "" {
		missions, err := storage.OpenSqlite(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to open mission log: %w", err)
		}
		defer missions.Close()
		runner.missions = missions
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner.Run(ctx, objective)
	return nil
}

// Actions lists the capabilities the planner may invoke.
func Actions(opts Options) error {
	// Listing needs metadata only; simulated drivers stand in for hardware.
	clock := clockwork.NewRealClock()
	car := robot.NewSimCar(clock)
	registry, err := robot.DefaultRegistry(robot.Drivers{
		RobotID:     "theseus",
		Motor:       car,
		Rangefinder: car,
		Status:      comms.ConsoleSink{W: os.Stdout},
		Clock:       clock,
	}, logger.New("robot"))
	if err != nil {
		return err
	}

	fmt.Println("Available actions:")
	if opts.Verbose {
		fmt.Print(registry.PromptDescription())
		return nil
	}
	for _, meta := range registry.List() {
		fmt.Printf("  %s - %s\n", meta.Name, meta.Description)
	}
	return nil
}

// Missions lists recorded missions, newest first.
func Missions(ctx context.Context, dbPath string, limit int, opts Options) error {
	log, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open mission log: %w", err)
	}
	defer log.Close()

	missions, err := log.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(missions) == 0 {
		fmt.Println("No missions recorded.")
		return nil
	}

	for _, m := range missions {
		fmt.Printf("%s  %s\n", m.FinishedAt.Local().Format("2006-01-02 15:04:05"), m.ID)
		fmt.Printf("  Objective: %s\n", m.Objective)
		fmt.Printf("  Result: %s (%d iterations in %s)\n", m.FinalResult, m.Iterations, m.Duration.Round(time.Millisecond))
		if opts.Verbose && m.History != "" {
			fmt.Println("  History:")
			fmt.Println(indent(m.History, "    "))
		}
		fmt.Println()
	}
	return nil
}

// missionRunner runs planning sessions and records finished missions.
type missionRunner struct {
	loop     *planner.Loop
	missions storage.MissionLog
	clock    clockwork.Clock
	log      zerolog.Logger
}

var _ comms.Runner = (*missionRunner)(nil)

func (r *missionRunner) Run(ctx context.Context, objective string) string {
	session := r.loop.RunSession(ctx, objective)

	if r.missions != nil {
		mission := storage.Mission{
			ID:          session.ID,
			Objective:   session.Objective,
			FinalResult: session.FinalResult,
			Iterations:  session.IterationCount,
			Duration:    session.Duration,
			History:     session.ExecutionHistory,
			StartedAt:   session.StartTime,
			FinishedAt:  session.StartTime.Add(session.Duration),
		}
		if err := r.missions.Record(ctx, mission); err != nil {
			r.log.Warn().Err(err).Str(logger.MissionField, session.ID).Msg("failed to record mission")
		}
	}

	return session.Summary()
}

// loadProvider resolves settings and builds the reasoning provider.
func loadProvider(opts Options) (config.Settings, llm.Provider, error) {
	if opts.Provider == "" {
		return config.Settings{}, nil, fmt.Errorf("--provider is required for this command")
	}

	providerType, err := llm.ParseProviderType(opts.Provider)
	if err != nil {
		return config.Settings{}, nil, err
	}

	cfg, err := config.New(opts.Provider)
	if err != nil {
		return config.Settings{}, nil, err
	}

	apiKey, err := config.APIKeyFor(opts.Provider)
	if err != nil {
		return config.Settings{}, nil, err
	}

	provider, err := providerType.
		Model(cfg.LLM.Model).
		MaxTokens(cfg.LLM.MaxTokens).
		Temperature(float32(cfg.LLM.Temperature)).
		APIKey(apiKey)
	if err != nil {
		return config.Settings{}, nil, err
	}

	return cfg, provider, nil
}

// buildLoop assembles the capability registry, reasoning gateway, and
// planning loop around the given drivers and status sink.
func buildLoop(cfg config.Settings, opts Options, provider llm.Provider, drivers robot.Drivers, status planner.StatusSink, clock clockwork.Clock) (*planner.Loop, error) {
	registry, err := robot.DefaultRegistry(drivers, logger.New("robot"))
	if err != nil {
		return nil, err
	}
	executor := robot.NewExecutor(registry, logger.New("robot"))

	gateway := planner.NewGateway(planner.GatewayConfig{
		Provider:       provider,
		Capabilities:   registry.PromptDescription(),
		MinInterval:    cfg.Planner.MinRequestInterval,
		RequestTimeout: cfg.LLM.RequestTimeout,
		Clock:          clock,
		Log:            logger.New("gateway"),
	})

	maxIterations := cfg.Planner.MaxIterations
	if opts.MaxIter > 0 {
		maxIterations = opts.MaxIter
	}

	return planner.NewLoop(planner.LoopConfig{
		Source:          gateway,
		Runner:          executor,
		Evaluator:       planner.NewEvaluator(logger.New("evaluator")),
		Status:          status,
		Clock:           clock,
		MaxIterations:   maxIterations,
		MaxPlanningTime: cfg.Planner.MaxPlanningTime,
		IterationDelay:  cfg.Planner.IterationDelay,
		ActionSettle:    cfg.Planner.ActionSettle,
		Log:             logger.New("planner"),
	}), nil
}

// buildDrivers selects the motor and rangefinder implementations. The
// returned release function de-energizes real hardware on shutdown.
func buildDrivers(cfg config.Settings, opts Options, clock clockwork.Clock) (robot.Motor, robot.Rangefinder, func(), error) {
	switch kind := driverKind(cfg, opts); kind {
	case "sim":
		car := robot.NewSimCar(clock)
		return car, car, func() {}, nil
	case "gpio":
		car, err := robot.NewGPIOCar(robot.Pins{
			IN1:     cfg.Robot.PinIN1,
			IN2:     cfg.Robot.PinIN2,
			IN3:     cfg.Robot.PinIN3,
			IN4:     cfg.Robot.PinIN4,
			Trigger: cfg.Robot.PinTrigger,
			Echo:    cfg.Robot.PinEcho,
		}, clock)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize GPIO drivers: %w", err)
		}
		release := func() {
			_ = car.Drive(context.Background(), robot.DirStop, 0)
		}
		return car, car, release, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown driver set %q (expected sim or gpio)", kind)
	}
}

func driverKind(cfg config.Settings, opts Options) string {
	if opts.Drivers != "" {
		return opts.Drivers
	}
	return cfg.Robot.Drivers
}

func indent(s, prefix string) string {
	trimmed := strings.TrimRight(s, "\n")
	return prefix + strings.ReplaceAll(trimmed, "\n", "\n"+prefix)
}
