package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/config"
	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/events"
	"github.com/spec-kit/car-marketplace/internal/media"
	"github.com/spec-kit/car-marketplace/internal/persistence"
	"github.com/spec-kit/car-marketplace/internal/repository"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

// SellRequestService owns sell request submission and moderation.
type SellRequestService struct {
	requests   repository.SellRequestRepository
	models     repository.BrandModelRepository
	cars       repository.CarRepository
	catalog    *CatalogService
	tx         persistence.TxManager
	media      media.Store
	dispatcher events.Dispatcher
	policy     config.DuplicatePolicy
	logger     *zap.Logger
}

// SellRequestDependencies bundles collaborators for the lifecycle.
type SellRequestDependencies struct {
	SellRequestRepo repository.SellRequestRepository
	ModelRepo       repository.BrandModelRepository
	CarRepo         repository.CarRepository
	Catalog         *CatalogService
	TxManager       persistence.TxManager
	Media           media.Store
	Dispatcher      events.Dispatcher
	DuplicatePolicy config.DuplicatePolicy
	Logger          *zap.Logger
}

// SubmitSellRequestInput is the seller's form. Optional fields are
// pointers; the required set is brand, model, year and seller contact.
type SubmitSellRequestInput struct {
	BrandID        string                `json:"brandId" validate:"required"`
	ModelID        string                `json:"modelId" validate:"required"`
	Year           int                   `json:"year" validate:"required,min=1900,max=2100"`
	ExpectedPrice  *int64                `json:"expectedPrice" validate:"omitempty,min=0"`
	Mileage        *int                  `json:"mileage" validate:"omitempty,min=0"`
	FuelType       *domain.FuelType      `json:"fuelType"`
	Transmission   *domain.Transmission  `json:"transmission"`
	Color          *string               `json:"color"`
	Condition      *domain.SellCondition `json:"condition"`
	BodyType       *string               `json:"bodyType"`
	AdditionalInfo *string               `json:"additionalInfo"`
	SellerName     string                `json:"sellerName" validate:"required"`
	SellerEmail    string                `json:"sellerEmail" validate:"required,email"`
	SellerPhone    string                `json:"sellerPhone" validate:"required"`
}

// NewSellRequestService constructs the service.
func NewSellRequestService(deps SellRequestDependencies) *SellRequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := deps.DuplicatePolicy
	if policy == "" {
		policy = config.DuplicateRejectOpen
	}
	return &SellRequestService{
		requests:   deps.SellRequestRepo,
		models:     deps.ModelRepo,
		cars:       deps.CarRepo,
		catalog:    deps.Catalog,
		tx:         deps.TxManager,
		media:      deps.Media,
		dispatcher: deps.Dispatcher,
		policy:     policy,
		logger:     logger,
	}
}

// Submit validates and stores a pending sell request. images are media
// references already written by the upload layer; every failure path
// deletes them before returning.
func (s *SellRequestService) Submit(ctx context.Context, input SubmitSellRequestInput, images []string) (*domain.SellRequest, error) {
	req, listing, err := s.prepare(ctx, input, images)
	if err == nil {
		err = s.create(ctx, req)
	}
	if err != nil {
		media.DeleteAll(ctx, s.media, images, s.logger)
		return nil, err
	}

	s.logger.Info("sell request submitted",
		zap.String("sell_request_id", req.ID),
		zap.String("brand_id", req.BrandID),
		zap.String("model_id", req.ModelID))

	payload := events.SellRequestSubmittedPayload{
		Listing:     listing,
		SellerName:  req.SellerName,
		SellerEmail: req.SellerEmail,
		SellerPhone: req.SellerPhone,
	}
	if s.media != nil && len(req.Images) > 0 {
		payload.CoverImageURL = s.media.URL(req.Images[0])
	}
	s.publish(ctx, events.New(events.EventSellRequestSubmitted, req.ID, events.Actor{}, payload))
	return req, nil
}

func (s *SellRequestService) prepare(ctx context.Context, input SubmitSellRequestInput, images []string) (*domain.SellRequest, events.ListingSummary, error) {
	var listing events.ListingSummary

	input.BrandID = strings.TrimSpace(input.BrandID)
	input.ModelID = strings.TrimSpace(input.ModelID)
	input.SellerName = strings.TrimSpace(input.SellerName)
	input.SellerEmail = strings.TrimSpace(input.SellerEmail)
	input.SellerPhone = strings.TrimSpace(input.SellerPhone)
	if err := validateInput(input); err != nil {
		return nil, listing, err
	}
	if len(images) == 0 {
		return nil, listing, apperrors.NewValidationError("at least one image is required", map[string]any{"images": "required"})
	}
	if input.FuelType != nil && !input.FuelType.Valid() {
		return nil, listing, apperrors.NewValidationError("invalid fuel type", map[string]any{"fuelType": *input.FuelType})
	}
	if input.Transmission != nil && !input.Transmission.Valid() {
		return nil, listing, apperrors.NewValidationError("invalid transmission", map[string]any{"transmission": *input.Transmission})
	}
	if input.Condition != nil && !input.Condition.Valid() {
		return nil, listing, apperrors.NewValidationError("invalid condition", map[string]any{"condition": *input.Condition})
	}

	brand, err := s.catalog.ResolveBrand(ctx, input.BrandID)
	if err != nil {
		return nil, listing, unknownReference(err, "brand", input.BrandID)
	}
	model, err := s.catalog.ResolveModel(ctx, input.ModelID, input.BrandID)
	if err != nil {
		return nil, listing, unknownReference(err, "model", input.ModelID)
	}

	listing = events.ListingSummary{
		BrandName: brand.Name,
		ModelName: model.Name,
		Year:      input.Year,
		Price:     input.ExpectedPrice,
	}
	return &domain.SellRequest{
		BrandID:        brand.ID,
		ModelID:        model.ID,
		Year:           input.Year,
		ExpectedPrice:  input.ExpectedPrice,
		Mileage:        input.Mileage,
		FuelType:       input.FuelType,
		Transmission:   input.Transmission,
		Color:          trimPtr(input.Color),
		Condition:      input.Condition,
		BodyType:       trimPtr(input.BodyType),
		AdditionalInfo: trimPtr(input.AdditionalInfo),
		Images:         images,
		SellerName:     input.SellerName,
		SellerEmail:    input.SellerEmail,
		SellerPhone:    input.SellerPhone,
		Status:         domain.SellRequestPending,
	}, listing, nil
}

// blockingStatuses lists the statuses of existing requests that make a new
// one for the same brand and model a duplicate. ok is false when the
// policy accepts duplicates.
func (s *SellRequestService) blockingStatuses() (statuses []domain.SellRequestStatus, ok bool) {
	switch s.policy {
	case config.DuplicateRejectOpen:
		return []domain.SellRequestStatus{domain.SellRequestPending}, true
	case config.DuplicateRejectAny:
		return nil, true
	default:
		return nil, false
	}
}

// create inserts req. Under a rejecting policy the duplicate check and the
// insert share a transaction holding the brand/model lock, so concurrent
// submissions for one pair are decided one at a time.
func (s *SellRequestService) create(ctx context.Context, req *domain.SellRequest) error {
	statuses, guarded := s.blockingStatuses()
	if !guarded {
		return mapRepoErr(s.requests.Create(ctx, nil, req), "sell request")
	}
	err := persistence.RunInTx(ctx, s.tx, func(tx persistence.Tx) error {
		if err := s.requests.LockBrandModel(ctx, tx, req.BrandID, req.ModelID); err != nil {
			return err
		}
		exists, err := s.requests.ExistsForBrandModel(ctx, tx, req.BrandID, req.ModelID, statuses)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewDomainError("DUPLICATE_REQUEST",
				"a sell request for this brand and model already exists", 409,
				map[string]any{"brandId": req.BrandID, "modelId": req.ModelID})
		}
		return s.requests.Create(ctx, tx, req)
	})
	return mapRepoErr(err, "sell request")
}

// Transition moves a pending request to approved or rejected. Approval
// creates the derived listing in the same transaction as the status
// change. The outcome event is published only after commit.
func (s *SellRequestService) Transition(ctx context.Context, id string, target domain.SellRequestStatus, actor *domain.User) (*domain.SellRequest, error) {
	if target != domain.SellRequestApproved && target != domain.SellRequestRejected {
		return nil, apperrors.NewValidationError("status must be approved or rejected",
			map[string]any{"status": string(target)})
	}
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}

	var updated *domain.SellRequest
	err := persistence.RunInTx(ctx, s.tx, func(tx persistence.Tx) error {
		current, err := s.requests.GetForUpdate(ctx, tx, id)
		if err != nil {
			return mapRepoErr(err, "sell request")
		}
		if current.Status != domain.SellRequestPending {
			return alreadyFinalized(current.Status)
		}

		var carID *string
		if target == domain.SellRequestApproved {
			model, err := s.models.GetByID(ctx, tx, current.ModelID)
			if err != nil {
				return mapRepoErr(err, "model")
			}
			if model.BrandID != current.BrandID {
				return apperrors.NewNotFound("model", map[string]any{"modelId": current.ModelID})
			}
			car := current.ToCar(actor.ID)
			if err := s.cars.Create(ctx, tx, car); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return alreadyFinalized(domain.SellRequestApproved)
				}
				return apperrors.NewInternalError(err)
			}
			carID = &car.ID
		}

		updated, err = s.requests.TransitionStatus(ctx, tx, id, domain.SellRequestPending, target)
		if err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				return alreadyFinalized("")
			}
			return mapRepoErr(err, "sell request")
		}

		decided := *updated
		tx.AfterCommit(func(ctx context.Context) {
			s.publishDecision(ctx, &decided, carID, actor)
		})
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, "sell request")
	}

	s.logger.Info("sell request transitioned",
		zap.String("sell_request_id", id),
		zap.String("status", string(target)),
		zap.String("admin_id", actor.ID))
	return updated, nil
}

func alreadyFinalized(status domain.SellRequestStatus) error {
	details := map[string]any{}
	if status != "" {
		details["status"] = string(status)
	}
	return apperrors.NewConflict("sell request already finalized", details)
}

// publishDecision runs after commit; lookups here are best-effort and
// never affect the committed transition.
func (s *SellRequestService) publishDecision(ctx context.Context, req *domain.SellRequest, carID *string, actor *domain.User) {
	listing := events.ListingSummary{Year: req.Year, Price: req.ExpectedPrice}
	if brand, err := s.catalog.ResolveBrand(ctx, req.BrandID); err == nil {
		listing.BrandName = brand.Name
	}
	if model, err := s.models.GetByID(ctx, nil, req.ModelID); err == nil {
		listing.ModelName = model.Name
	}

	eventType := events.EventSellRequestRejected
	if req.Status == domain.SellRequestApproved {
		eventType = events.EventSellRequestApproved
	}
	adminID, role := actor.ID, actor.Role
	s.publish(ctx, events.New(eventType, req.ID, events.Actor{UserID: &adminID, Role: &role},
		events.SellRequestDecidedPayload{
			OldStatus:   domain.SellRequestPending,
			NewStatus:   req.Status,
			CarID:       carID,
			Listing:     listing,
			SellerName:  req.SellerName,
			SellerEmail: req.SellerEmail,
		}))
}

// Get returns one sell request.
func (s *SellRequestService) Get(ctx context.Context, id string) (*domain.SellRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "sell request")
	}
	return req, nil
}

// List pages through sell requests, newest first.
func (s *SellRequestService) List(ctx context.Context, q PageQuery) (*PageResult[domain.SellRequest], error) {
	reqs, total, err := s.requests.List(ctx, q.repo())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return newPageResult(reqs, total, q), nil
}

func (s *SellRequestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
