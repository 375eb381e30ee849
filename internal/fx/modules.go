package fx

import (
	"boathouse/internal/config"
	"boathouse/internal/database"
	"boathouse/internal/eligibility"
	"boathouse/internal/gamification"
	"boathouse/internal/logger"
	"boathouse/internal/recommend"
	"boathouse/internal/repository"
	"boathouse/internal/server"
	"boathouse/internal/service"
	"boathouse/internal/weather"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideGate() *eligibility.Gate {
	return eligibility.New(eligibility.DefaultRequirements())
}

func ProvideEngine(gate *eligibility.Gate) *recommend.Engine {
	return recommend.New(gate, recommend.DefaultWeights())
}

func ProvideLedger(
	members *repository.MemberRepository,
	badges *repository.BadgeRepository,
	notifications *repository.NotificationRepository,
	log zerolog.Logger,
) *gamification.Ledger {
	return gamification.NewLedger(members, badges, notifications, gamification.DefaultConfig(), log)
}

func ProvideReservationService(
	reservations *repository.ReservationRepository,
	boats *repository.BoatRepository,
	members *repository.MemberRepository,
	engine *recommend.Engine,
	ledger *gamification.Ledger,
	notifications *repository.NotificationRepository,
	log zerolog.Logger,
) *service.ReservationService {
	return service.NewReservationService(reservations, boats, members, engine, ledger, notifications, log)
}

func ProvideSuggestionService(
	members *repository.MemberRepository,
	boats *repository.BoatRepository,
	conditions *weather.Client,
	engine *recommend.Engine,
	log zerolog.Logger,
) *service.SuggestionService {
	return service.NewSuggestionService(members, boats, conditions, engine, log)
}

func ProvideMemberService(
	members *repository.MemberRepository,
	badges *repository.BadgeRepository,
	notifications *repository.NotificationRepository,
	log zerolog.Logger,
) *service.MemberService {
	return service.NewMemberService(members, badges, notifications, log)
}

func ProvideReconcileService(
	reservations *service.ReservationService,
	ledger *gamification.Ledger,
	payments *repository.PaymentRepository,
	notifications *repository.NotificationRepository,
	log zerolog.Logger,
) *service.ReconcileService {
	return service.NewReconcileService(reservations, ledger, payments, notifications, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewMemberRepository),
	fx.Provide(repository.NewBoatRepository),
	fx.Provide(repository.NewReservationRepository),
	fx.Provide(repository.NewBadgeRepository),
	fx.Provide(repository.NewNotificationRepository),
	fx.Provide(repository.NewPaymentRepository),
	// collaborators
	fx.Provide(weather.NewClient),
	// core
	fx.Provide(ProvideGate),
	fx.Provide(ProvideEngine),
	fx.Provide(ProvideLedger),
	// svc
	fx.Provide(ProvideReservationService),
	fx.Provide(ProvideSuggestionService),
	fx.Provide(ProvideMemberService),
	fx.Provide(ProvideReconcileService),
	// server
	fx.Provide(server.New),
)
