package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/scholar-ledger-api/internal/dto"
	"github.com/noah-isme/scholar-ledger-api/internal/engine"
	"github.com/noah-isme/scholar-ledger-api/internal/events"
	"github.com/noah-isme/scholar-ledger-api/internal/models"
	"github.com/noah-isme/scholar-ledger-api/internal/observability"
	"github.com/noah-isme/scholar-ledger-api/internal/repository"
)

var (
	// ErrFeeHeadNotFound indicates the fee head does not exist.
	ErrFeeHeadNotFound = errors.New("fee head not found")
	// ErrPaymentNotFound indicates the payment does not exist.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrFeeHeadNameEmpty indicates the fee head name is blank once markup is stripped.
	ErrFeeHeadNameEmpty = errors.New("fee head name is required")
	// ErrLineItemsExceedAmount indicates the itemised breakdown is larger than the payment.
	ErrLineItemsExceedAmount = errors.New("line items exceed payment amount")
)

// BursaryService manages fee heads and payments and resolves balances.
type BursaryService interface {
	CreateFeeHead(ctx context.Context, payload dto.FeeHeadCreateRequest, actor ActivityActor) (dto.FeeHeadResponse, error)
	ListFeeHeads(ctx context.Context, query dto.ScopeQuery) ([]dto.FeeHeadResponse, error)
	DeleteFeeHead(ctx context.Context, id uint, actor ActivityActor) error
	RecordPayment(ctx context.Context, payload dto.PaymentCreateRequest, actor ActivityActor) (dto.PaymentResponse, error)
	ListPayments(ctx context.Context, req dto.PaymentListRequest) ([]dto.PaymentResponse, error)
	DeletePayment(ctx context.Context, id uint, actor ActivityActor) error
	StudentBalance(ctx context.Context, studentID uint, query dto.ScopeQuery) (dto.StudentBalanceResponse, error)
	ClassBalances(ctx context.Context, classID uint, query dto.ScopeQuery) (dto.ClassBalancesResponse, error)
}

type bursaryService struct {
	fees      repository.FeeHeadRepository
	payments  repository.PaymentRepository
	students  repository.StudentRepository
	classes   repository.ClassRepository
	settings  SettingsService
	publisher events.Publisher
	validator *validator.Validate
	activity  ActivityRecorder
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	reference func() string
}

// NewBursaryService constructs the bursary service.
func NewBursaryService(fees repository.FeeHeadRepository, payments repository.PaymentRepository, students repository.StudentRepository, classes repository.ClassRepository, settings SettingsService, publisher events.Publisher, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) BursaryService {
	return &bursaryService{
		fees:      fees,
		payments:  payments,
		students:  students,
		classes:   classes,
		settings:  settings,
		publisher: publisher,
		validator: validator,
		activity:  activity,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "bursary_service").Logger(),
		reference: uuid.NewString,
	}
}

func (s *bursaryService) CreateFeeHead(ctx context.Context, payload dto.FeeHeadCreateRequest, actor ActivityActor) (dto.FeeHeadResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeeHeadResponse{}, err
	}
	if payload.ClassID != nil {
		if _, err := loadClass(ctx, s.classes, *payload.ClassID); err != nil {
			return dto.FeeHeadResponse{}, err
		}
	}
	scope, err := s.settings.ResolveScope(ctx, dto.ScopeQuery{Session: payload.Session, Term: payload.Term})
	if err != nil {
		return dto.FeeHeadResponse{}, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if name == "" {
		return dto.FeeHeadResponse{}, ErrFeeHeadNameEmpty
	}

	fee := models.FeeHead{
		Name:    name,
		Amount:  payload.Amount,
		ClassID: payload.ClassID,
		Session: scope.Session,
		Term:    scope.Term,
	}
	if err := s.fees.Create(ctx, &fee); err != nil {
		return dto.FeeHeadResponse{}, err
	}

	response := dto.NewFeeHeadResponse(fee)
	publish(ctx, s.publisher, s.logger, events.TypeFeeHeadCreated, scope, response)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     events.TypeFeeHeadCreated,
		EntityType: "fee_head",
		EntityID:   &fee.ID,
		Scope:      scope,
		Metadata:   map[string]interface{}{"name": fee.Name, "amount": fee.Amount},
	})

	return response, nil
}

func (s *bursaryService) ListFeeHeads(ctx context.Context, query dto.ScopeQuery) ([]dto.FeeHeadResponse, error) {
	scope, err := s.settings.ResolveScope(ctx, query)
	if err != nil {
		return nil, err
	}

	fees, err := s.fees.List(ctx, repository.FeeHeadFilter{Session: scope.Session, Term: scope.Term})
	if err != nil {
		return nil, err
	}
	return dto.NewFeeHeadResponses(fees), nil
}

func (s *bursaryService) DeleteFeeHead(ctx context.Context, id uint, actor ActivityActor) error {
	fee, err := s.fees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeeHeadNotFound
		}
		return err
	}
	if err := s.fees.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeeHeadNotFound
		}
		return err
	}

	scope := Scope{Session: fee.Session, Term: fee.Term}
	publish(ctx, s.publisher, s.logger, events.TypeFeeHeadDeleted, scope, dto.NewFeeHeadResponse(fee))
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     events.TypeFeeHeadDeleted,
		EntityType: "fee_head",
		EntityID:   &fee.ID,
		Scope:      scope,
		Metadata:   map[string]interface{}{"name": fee.Name, "amount": fee.Amount},
	})
	return nil
}

func (s *bursaryService) RecordPayment(ctx context.Context, payload dto.PaymentCreateRequest, actor ActivityActor) (dto.PaymentResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/scholar-ledger-api/internal/service/bursary")
	ctx, span := tracer.Start(ctx, "bursary.record_payment")
	span.SetAttributes(
		attribute.Int64("bursary.student_id", int64(payload.StudentID)),
		attribute.Int64("bursary.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.PaymentResponse{}, err
	}

	var itemised float64
	items := make(datatypes.JSONSlice[models.PaymentLineItem], 0, len(payload.LineItems))
	for _, item := range payload.LineItems {
		itemised += item.Amount
		items = append(items, models.PaymentLineItem{Name: strings.TrimSpace(s.sanitizer.Sanitize(item.Name)), Amount: item.Amount})
	}
	if itemised > payload.Amount {
		span.RecordError(ErrLineItemsExceedAmount)
		span.SetStatus(codes.Error, "line_items_exceed_amount")
		return dto.PaymentResponse{}, ErrLineItemsExceedAmount
	}

	if _, err := loadStudent(ctx, s.students, payload.StudentID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.PaymentResponse{}, err
	}
	scope, err := s.settings.ResolveScope(ctx, dto.ScopeQuery{Session: payload.Session, Term: payload.Term})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scope_resolution_failed")
		return dto.PaymentResponse{}, err
	}

	payment := models.Payment{
		StudentID:  payload.StudentID,
		Amount:     payload.Amount,
		Method:     payload.Method,
		Date:       payload.Date,
		Session:    scope.Session,
		Term:       scope.Term,
		Reference:  s.reference(),
		LineItems:  items,
		RecordedBy: actor.ID,
	}
	if err := s.payments.Create(ctx, &payment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment_create_failed")
		return dto.PaymentResponse{}, err
	}

	response := dto.NewPaymentResponse(payment)
	publish(ctx, s.publisher, s.logger, events.TypePaymentRecorded, scope, response)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     events.TypePaymentRecorded,
		EntityType: "payment",
		EntityID:   &payment.ID,
		Scope:      scope,
		Metadata: map[string]interface{}{
			"student_id": payment.StudentID,
			"amount":     payment.Amount,
			"method":     payment.Method,
			"reference":  payment.Reference,
		},
	})

	s.logger.Info().
		Uint("student_id", payment.StudentID).
		Float64("amount", payment.Amount).
		Str("reference", payment.Reference).
		Msg("payment recorded")

	return response, nil
}

func (s *bursaryService) ListPayments(ctx context.Context, req dto.PaymentListRequest) ([]dto.PaymentResponse, error) {
	scope, err := s.settings.ResolveScope(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.List(ctx, repository.PaymentFilter{
		StudentID: req.StudentID,
		Session:   scope.Session,
		Term:      scope.Term,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentResponses(payments), nil
}

func (s *bursaryService) DeletePayment(ctx context.Context, id uint, actor ActivityActor) error {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	if err := s.payments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}

	scope := Scope{Session: payment.Session, Term: payment.Term}
	publish(ctx, s.publisher, s.logger, events.TypePaymentDeleted, scope, dto.NewPaymentResponse(payment))
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     events.TypePaymentDeleted,
		EntityType: "payment",
		EntityID:   &payment.ID,
		Scope:      scope,
		Metadata: map[string]interface{}{
			"student_id": payment.StudentID,
			"amount":     payment.Amount,
			"reference":  payment.Reference,
		},
	})
	return nil
}

func (s *bursaryService) StudentBalance(ctx context.Context, studentID uint, query dto.ScopeQuery) (dto.StudentBalanceResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/scholar-ledger-api/internal/service/bursary")
	ctx, span := tracer.Start(ctx, "bursary.student_balance")
	span.SetAttributes(attribute.Int64("bursary.student_id", int64(studentID)))
	defer span.End()

	student, err := loadStudent(ctx, s.students, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.StudentBalanceResponse{}, err
	}
	scope, err := s.settings.ResolveScope(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scope_resolution_failed")
		return dto.StudentBalanceResponse{}, err
	}

	fees, err := s.fees.List(ctx, repository.FeeHeadFilter{Session: scope.Session, Term: scope.Term})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fee_lookup_failed")
		return dto.StudentBalanceResponse{}, err
	}
	payments, err := s.payments.List(ctx, repository.PaymentFilter{StudentID: &student.ID, Session: scope.Session, Term: scope.Term})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment_lookup_failed")
		return dto.StudentBalanceResponse{}, err
	}

	observability.LedgerResolves().WithLabelValues("student").Inc()
	return dto.StudentBalanceResponse{
		Student:  dto.NewStudentSummary(student),
		ClassID:  student.ClassID,
		Session:  scope.Session,
		Term:     scope.Term,
		Fees:     dto.NewFeeHeadResponses(engine.ApplicableFees(student, fees, scope.Session, scope.Term)),
		Payments: dto.NewPaymentResponses(engine.StudentPayments(student.ID, payments, scope.Session, scope.Term)),
		Ledger:   engine.Balance(student, fees, payments, scope.Session, scope.Term),
	}, nil
}

func (s *bursaryService) ClassBalances(ctx context.Context, classID uint, query dto.ScopeQuery) (dto.ClassBalancesResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/scholar-ledger-api/internal/service/bursary")
	ctx, span := tracer.Start(ctx, "bursary.class_balances")
	span.SetAttributes(attribute.Int64("bursary.class_id", int64(classID)))
	defer span.End()

	class, err := loadClass(ctx, s.classes, classID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "class_lookup_failed")
		return dto.ClassBalancesResponse{}, err
	}
	scope, err := s.settings.ResolveScope(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scope_resolution_failed")
		return dto.ClassBalancesResponse{}, err
	}

	roster, err := s.students.List(ctx, repository.StudentFilter{ClassID: &class.ID})
	if err != nil {
		return dto.ClassBalancesResponse{}, err
	}
	ids := make([]uint, 0, len(roster))
	for _, student := range roster {
		ids = append(ids, student.ID)
	}

	fees, err := s.fees.List(ctx, repository.FeeHeadFilter{Session: scope.Session, Term: scope.Term})
	if err != nil {
		return dto.ClassBalancesResponse{}, err
	}
	payments, err := s.payments.List(ctx, repository.PaymentFilter{StudentIDs: ids, Session: scope.Session, Term: scope.Term})
	if err != nil {
		return dto.ClassBalancesResponse{}, err
	}

	response := dto.ClassBalancesResponse{
		Class:    dto.NewClassSummary(class),
		Session:  scope.Session,
		Term:     scope.Term,
		Students: make([]dto.ClassBalanceRow, 0, len(roster)),
	}
	for _, student := range roster {
		ledger := engine.Balance(student, fees, payments, scope.Session, scope.Term)
		response.Students = append(response.Students, dto.ClassBalanceRow{Student: dto.NewStudentSummary(student), Ledger: ledger})
		response.Totals.TotalBill += ledger.TotalBill
		response.Totals.TotalPaid += ledger.TotalPaid
		response.Totals.Balance += ledger.Balance
	}

	observability.LedgerResolves().WithLabelValues("class").Inc()
	return response, nil
}
