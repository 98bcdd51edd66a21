package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/locking"
	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/slot"
)

// ServiceFactory assists tests with constructing application services that
// share one lock registry and one slot cache, using deterministic identifiers
// and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Locks       *locking.Registry
	Cache       *application.SlotCache
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Locks:       locking.NewRegistry(),
		Cache:       application.NewSlotCache(time.Minute),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Locks == nil {
		factory.Locks = locking.NewRegistry()
	}
	if factory.Cache == nil {
		factory.Cache = application.NewSlotCache(time.Minute)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger attaches a base logger to every built service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewSlotService builds a slot service over the given repositories.
func (f *ServiceFactory) NewSlotService(slots persistence.SlotRepository, planningRepo persistence.PlanningRepository, appointments persistence.AppointmentRepository, generator *slot.Generator) *application.SlotService {
	return application.NewSlotServiceWithLogger(
		slots,
		planningRepo,
		appointments,
		f.Locks,
		f.Cache,
		generator,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// NewPlanningService builds a planning service sharing the factory's lock
// registry and cache with its sibling slot service.
func (f *ServiceFactory) NewPlanningService(slots persistence.SlotRepository, planningRepo persistence.PlanningRepository, appointments persistence.AppointmentRepository) *application.PlanningService {
	return application.NewPlanningServiceWithLogger(
		slots,
		planningRepo,
		appointments,
		f.Locks,
		f.Cache,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// NewCommentService builds a comment service.
func (f *ServiceFactory) NewCommentService(comments persistence.CommentRepository) *application.CommentService {
	return application.NewCommentServiceWithLogger(
		comments,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}
