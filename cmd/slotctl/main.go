// Command slotctl administers appointment slot calendars: schema migration,
// seeding weekly templates, materializing slots and editing single slots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/config"
	"github.com/example/appointment-scheduler/internal/locking"
	"github.com/example/appointment-scheduler/internal/logging"
	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/persistence/sqlite"
	"github.com/example/appointment-scheduler/internal/planning"
	"github.com/example/appointment-scheduler/internal/slot"
)

const dateLayout = "2006-01-02"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)

	if err := run(ctx, cfg, logger, os.Args[1:]); err != nil {
		logger.Error("command failed", "error", err, "error_kind", application.ErrorKind(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("a subcommand is required")
	}

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	switch args[0] {
	case "migrate":
		// Migration already ran during startup; reaching here means success.
		logger.Info("schema up to date", "dsn", cfg.SQLiteDSN)
		return nil
	case "seed":
		return app.seed(ctx, args[1:])
	case "generate":
		return app.generate(ctx, args[1:])
	case "mutate":
		return app.mutate(ctx, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: slotctl <command> [flags]

commands:
  migrate    apply the database schema
  seed       create a weekly template for a form
  generate   print the bookable slots of a form for a date range
  mutate     edit one concrete slot (capacity, opening, ending time)`)
}

type app struct {
	cfg      config.Config
	logger   *slog.Logger
	location *time.Location
	pool     *sqlite.ConnectionPool

	slots        persistence.SlotRepository
	planning     persistence.PlanningRepository
	appointments persistence.AppointmentRepository

	slotService     *application.SlotService
	planningService *application.PlanningService
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	location, err := cfg.TimeLocation()
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", cfg.Location, err)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	slotRepo := sqlite.NewSlotRepository(pool)
	planningRepo := sqlite.NewPlanningRepository(pool)
	appointmentRepo := sqlite.NewAppointmentRepository(pool)

	// One lock registry and one cache across both services, so template
	// mutations invalidate calendars and slot edits serialize correctly.
	locks := locking.NewRegistry()
	cache := application.NewSlotCache(cfg.CacheTTL)
	idGenerator := uuid.NewString
	generator := slot.NewGenerator(location)

	return &app{
		cfg:          cfg,
		logger:       logger,
		location:     location,
		pool:         pool,
		slots:        slotRepo,
		planning:     planningRepo,
		appointments: appointmentRepo,
		slotService: application.NewSlotServiceWithLogger(
			slotRepo, planningRepo, appointmentRepo, locks, cache, generator, idGenerator, time.Now, logger),
		planningService: application.NewPlanningServiceWithLogger(
			slotRepo, planningRepo, appointmentRepo, locks, cache, idGenerator, time.Now, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.pool.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}

// seed creates a uniform week definition plus its reservation rule, effective
// from the given date. An existing snapshot with the same (form, date of
// apply) key is replaced.
func (a *app) seed(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("seed", flag.ContinueOnError)
	formID := flags.String("form", "", "form id (required)")
	apply := flags.String("apply", "", "date of apply, YYYY-MM-DD (required)")
	days := flags.String("days", "mon,tue,wed,thu,fri", "comma separated weekdays")
	start := flags.String("start", "09:00", "daily starting time, HH:MM")
	end := flags.String("end", "17:00", "daily ending time, HH:MM")
	duration := flags.Int("duration", 30, "slot duration in minutes")
	capacity := flags.Int("capacity", 1, "places per slot")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *formID == "" || *apply == "" {
		return errors.New("seed requires -form and -apply")
	}

	dateOfApply, err := time.ParseInLocation(dateLayout, *apply, a.location)
	if err != nil {
		return fmt.Errorf("invalid -apply date: %w", err)
	}
	startingTime, err := planning.ParseTimeOfDay(*start)
	if err != nil {
		return fmt.Errorf("invalid -start time: %w", err)
	}
	endingTime, err := planning.ParseTimeOfDay(*end)
	if err != nil {
		return fmt.Errorf("invalid -end time: %w", err)
	}
	weekdays, err := parseWeekdays(*days)
	if err != nil {
		return err
	}

	result, err := a.planningService.UpdateAdvancedParameters(ctx, application.AdvancedParameters{
		FormID:      *formID,
		DateOfApply: dateOfApply,
		Shape: planning.WeekShape{
			Weekdays:        weekdays,
			StartingTime:    startingTime,
			EndingTime:      endingTime,
			DurationMinutes: *duration,
			MaxCapacity:     *capacity,
		},
	})
	if err != nil {
		return err
	}
	a.logger.Info("week definition saved",
		"form_id", *formID,
		"date_of_apply", dateOfApply.Format(dateLayout),
		"surbooking", result.Surbooking)
	return nil
}

// generate prints the bookable slots of a form, one per line.
func (a *app) generate(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("generate", flag.ContinueOnError)
	formID := flags.String("form", "", "form id (required)")
	fromArg := flags.String("from", "", "range start, YYYY-MM-DD (default today)")
	toArg := flags.String("to", "", "range end, YYYY-MM-DD (default start plus the configured range)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *formID == "" {
		return errors.New("generate requires -form")
	}

	from := planning.DateOf(time.Now().In(a.location), a.location)
	if *fromArg != "" {
		parsed, err := time.ParseInLocation(dateLayout, *fromArg, a.location)
		if err != nil {
			return fmt.Errorf("invalid -from date: %w", err)
		}
		from = parsed
	}
	to := from.AddDate(0, 0, a.cfg.DefaultRange)
	if *toArg != "" {
		parsed, err := time.ParseInLocation(dateLayout, *toArg, a.location)
		if err != nil {
			return fmt.Errorf("invalid -to date: %w", err)
		}
		to = parsed
	}

	slots, err := a.slotService.GenerateSlots(ctx, *formID, from, to)
	if err != nil {
		return err
	}
	for _, s := range slots {
		state := "open"
		if !s.IsOpen {
			state = "closed"
		}
		marker := ""
		if s.IsSpecific {
			marker = " specific"
		}
		if s.IsSurbooked() {
			marker += " surbooked"
		}
		fmt.Printf("%s %s-%s %s %d/%d%s\n",
			s.Date.Format(dateLayout),
			s.StartingTime(), s.EndingTime(),
			state, s.NbPlacesTaken, s.MaxCapacity, marker)
	}
	a.logger.Info("slots generated", "form_id", *formID, "count", len(slots))
	return nil
}

// mutate edits one persisted slot. Unset flags keep the slot's current value.
func (a *app) mutate(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("mutate", flag.ContinueOnError)
	slotID := flags.String("slot", "", "slot id (required)")
	ending := flags.String("ending", "", "new ending time, HH:MM")
	capacity := flags.Int("capacity", 0, "new maximum capacity")
	open := flags.Bool("open", false, "new opening state")
	shift := flags.Bool("shift", false, "extend the impact window to the end of the day")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *slotID == "" {
		return errors.New("mutate requires -slot")
	}

	current, err := a.slots.GetSlot(ctx, *slotID)
	if err != nil {
		return err
	}

	mutation := application.SlotMutation{
		SlotID:         *slotID,
		NewEndingTime:  current.EndingTime(),
		NewMaxCapacity: current.MaxCapacity,
		NewIsOpen:      current.IsOpen,
		Shift:          *shift,
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "capacity":
			mutation.NewMaxCapacity = *capacity
		case "open":
			mutation.NewIsOpen = *open
		}
	})
	if *ending != "" {
		parsed, err := planning.ParseTimeOfDay(*ending)
		if err != nil {
			return fmt.Errorf("invalid -ending time: %w", err)
		}
		mutation.NewEndingTime = parsed
	}

	result, err := a.slotService.MutateSlot(ctx, mutation)
	if err != nil {
		var conflict *application.ConflictError
		if errors.As(err, &conflict) {
			a.logger.Warn("mutation rejected",
				"slot_id", *slotID,
				"impacted_appointments", conflict.ImpactedAppointments)
		}
		return err
	}
	a.logger.Info("slot mutated",
		"slot_id", *slotID,
		"surbooking", result.Surbooking,
		"validated_impacted", result.ValidatedImpacted)
	if result.Surbooking {
		fmt.Println("warning: capacity is now below the booked count")
	}
	return nil
}

func parseWeekdays(value string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
		"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
		"sat": time.Saturday,
	}
	var weekdays []time.Weekday
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		day, ok := names[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		weekdays = append(weekdays, day)
	}
	if len(weekdays) == 0 {
		return nil, errors.New("at least one weekday is required")
	}
	return weekdays, nil
}
