package service

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PulsaGit/promo_api/internal/models"
	"github.com/PulsaGit/promo_api/internal/repository"
	"github.com/PulsaGit/promo_api/internal/sse"
	"github.com/PulsaGit/promo_api/internal/utils"
	"github.com/PulsaGit/promo_api/internal/worker"
	"github.com/PulsaGit/promo_api/pkg/socx"
)

// PromoCheckService runs promo lookups against the remote catalog, either
// as a full batch over a project or ad hoc for a handful of numbers.
type PromoCheckService struct {
	projectRepo *repository.ProjectRepository
	numberRepo  *repository.PhoneNumberRepository
	offerRepo   *repository.PromoOfferRepository
	listRepo    *repository.PhoneListRepository
	settingsSvc *SettingsService
	runner      *worker.BatchRunner
	runs        *worker.RunRegistry
	notifier    sse.RunNotifier
}

// NewPromoCheckService constructs a PromoCheckService.
func NewPromoCheckService(
	projectRepo *repository.ProjectRepository,
	numberRepo *repository.PhoneNumberRepository,
	offerRepo *repository.PromoOfferRepository,
	listRepo *repository.PhoneListRepository,
	settingsSvc *SettingsService,
	runner *worker.BatchRunner,
	runs *worker.RunRegistry,
	notifier sse.RunNotifier,
) *PromoCheckService {
	return &PromoCheckService{
		projectRepo: projectRepo,
		numberRepo:  numberRepo,
		offerRepo:   offerRepo,
		listRepo:    listRepo,
		settingsSvc: settingsSvc,
		runner:      runner,
		runs:        runs,
		notifier:    notifier,
	}
}

func taskForProvider(code models.ProviderCode) socx.Task {
	if code == models.ProviderTri {
		return socx.TaskTriSpecialOffer
	}
	return socx.TaskIsimpleHotPromo
}

// StartCheckAll claims the provider's run slot and kicks off a background
// batch over the project's numbers. It returns as soon as the slot is
// claimed; progress is polled via Progress or streamed over SSE.
func (s *PromoCheckService) StartCheckAll(userID int, providerCode models.ProviderCode) (worker.RunSnapshot, error) {
	project, err := s.projectRepo.GetByCode(providerCode)
	if err == sql.ErrNoRows {
		return worker.RunSnapshot{}, utils.ErrProjectNotFound
	}
	if err != nil {
		return worker.RunSnapshot{}, err
	}

	// Resolve credentials before claiming the slot so a missing token
	// does not leave a phantom run behind.
	client, err := s.settingsSvc.SocxClient(userID)
	if err != nil {
		return worker.RunSnapshot{}, err
	}

	state := s.runs.Get(string(providerCode))
	if err := state.TryStart(); err != nil {
		return state.Snapshot(), err
	}

	go s.runBatch(project, client, state)

	snap := state.Snapshot()
	s.notifier.NotifyRunStarted(string(providerCode), snap)
	return snap, nil
}

func (s *PromoCheckService) runBatch(project *models.Project, client *socx.Client, state *worker.RunState) {
	runName := string(project.Code)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("run", runName).Msg("Batch run panicked")
			state.Fail("internal error")
		}
		s.notifier.NotifyRunFinished(runName, state.Snapshot())
	}()

	numbers, err := s.loadNumbers(project)
	if err != nil {
		log.Error().Err(err).Str("run", runName).Msg("Failed to load numbers for batch run")
		state.Fail(err.Error())
		return
	}
	if len(numbers) == 0 {
		log.Info().Str("run", runName).Msg("No numbers to check, releasing run slot")
		state.Reset()
		return
	}

	task := taskForProvider(project.Code)
	items := make([]worker.BatchItem, 0, len(numbers))
	for _, n := range numbers {
		items = append(items, worker.BatchItem{ID: n.ID, Label: n.Msisdn})
	}

	log.Info().
		Str("run", runName).
		Int("numbers", len(items)).
		Int("task_id", task.ID).
		Msg("Starting batch promo check")

	var authFailed atomic.Bool
	ctx := context.Background()

	s.runner.Run(ctx, state, items, func(ctx context.Context, item worker.BatchItem) error {
		err := s.checkOne(ctx, client, task, item.ID, item.Label)
		if err == socx.ErrUnauthorized {
			// One 401 means they all will be. Stop the run instead of
			// burning through the list.
			authFailed.Store(true)
			state.RequestStop()
		}
		s.notifier.NotifyRunProgress(runName, state.Snapshot())
		return err
	})

	if authFailed.Load() {
		state.Fail(utils.ErrSocxTokenInvalid.Error())
	}
}

// loadNumbers syncs the provider's import list into the project and falls
// back to whatever numbers the project already holds when the list is empty.
func (s *PromoCheckService) loadNumbers(project *models.Project) ([]models.PhoneNumber, error) {
	listed, err := s.listRepo.GetNumbers(project.Code)
	if err != nil {
		return nil, err
	}
	if len(listed) > 0 {
		return s.numberRepo.SyncFromPhoneList(project.ID, listed)
	}
	return s.numberRepo.GetByProjectOrdered(project.ID)
}

// checkOne looks up promos for a single number and persists the result.
// Every outcome lands in the database: success refreshes the offer set,
// failure clears it and marks the number failed.
func (s *PromoCheckService) checkOne(ctx context.Context, client *socx.Client, task socx.Task, numberID int, msisdn string) error {
	promos, err := client.LookupPromos(ctx, task, msisdn)
	if err != nil {
		s.markFailed(numberID, msisdn, err)
		return err
	}

	offers := normalizeOffers(numberID, promos)

	err = utils.WithRetry(ctx, func() error {
		return s.offerRepo.ReplaceForNumber(numberID, offers)
	}, utils.IsLockConflict, utils.DefaultLockRetry)
	if err != nil {
		s.markFailed(numberID, msisdn, err)
		return err
	}

	now := time.Now()
	if err := s.numberRepo.UpdateStatus(numberID, models.NumberStatusProcessed, len(offers), now); err != nil {
		log.Error().Err(err).Str("msisdn", msisdn).Msg("Failed to update number status")
		return err
	}
	return nil
}

func (s *PromoCheckService) markFailed(numberID int, msisdn string, cause error) {
	log.Warn().Err(cause).Str("msisdn", msisdn).Msg("Promo lookup failed")
	if err := s.offerRepo.DeleteByNumberID(numberID); err != nil {
		log.Error().Err(err).Str("msisdn", msisdn).Msg("Failed to clear offers for failed number")
	}
	now := time.Now()
	if err := s.numberRepo.UpdateStatus(numberID, models.NumberStatusFailed, 0, now); err != nil {
		log.Error().Err(err).Str("msisdn", msisdn).Msg("Failed to mark number as failed")
	}
}

// normalizeOffers flattens the two task payload shapes into offer rows.
// Entries without a usable code are dropped.
func normalizeOffers(numberID int, promos []socx.PromoPayload) []models.PromoOffer {
	offers := make([]models.PromoOffer, 0, len(promos))
	seen := make(map[string]bool, len(promos))
	for i := range promos {
		p := &promos[i]
		code := p.Code()
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		offer := models.PromoOffer{
			PhoneNumberID: numberID,
			ProductCode:   code,
			ProductName:   p.Title(),
			Amount:        p.Price(),
			ProductType:   p.Type,
			TypeTitle:     p.TypeTitle,
			Commission:    p.Commission.Int(),
			RawPayload:    p.Raw,
		}
		if offer.ProductType == "" {
			offer.ProductType = p.ProductType
		}
		if net := p.NetPrice.Int(); net > 0 {
			offer.NetAmount = &net
		}
		if offer.GbQuota = p.Gb.Float(); offer.GbQuota == 0 {
			offer.GbQuota = p.ProductGb.Float()
		}
		if offer.DayValidity = p.Days.Int(); offer.DayValidity == 0 {
			offer.DayValidity = p.ProductDay.Int()
		}
		if offer.DayValidity == 0 {
			offer.DayValidity = p.Validity.Int()
		}
		offers = append(offers, offer)
	}
	return offers
}

// Progress returns the current snapshot of the provider's run.
func (s *PromoCheckService) Progress(providerCode models.ProviderCode) worker.RunSnapshot {
	return s.runs.Get(string(providerCode)).Snapshot()
}

// Stop raises the cooperative stop flag on the provider's run. Returns
// false when no run is in flight.
func (s *PromoCheckService) Stop(providerCode models.ProviderCode) bool {
	return s.runs.Get(string(providerCode)).RequestStop()
}

// CheckNumbers runs a synchronous promo check for specific msisdns. The
// numbers are added to the project when new, checked with the same chunked
// fan-out as a full run, and returned with their fresh offers.
func (s *PromoCheckService) CheckNumbers(ctx context.Context, userID int, providerCode models.ProviderCode, msisdns []string) ([]models.PhoneNumber, error) {
	if len(msisdns) == 0 {
		return nil, utils.ErrNoNumbers
	}

	project, err := s.projectRepo.GetByCode(providerCode)
	if err == sql.ErrNoRows {
		return nil, utils.ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	client, err := s.settingsSvc.SocxClient(userID)
	if err != nil {
		return nil, err
	}

	numbers, err := s.numberRepo.SyncFromPhoneList(project.ID, msisdns)
	if err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, utils.ErrNoNumbers
	}

	task := taskForProvider(project.Code)
	items := make([]worker.BatchItem, 0, len(numbers))
	for _, n := range numbers {
		items = append(items, worker.BatchItem{ID: n.ID, Label: n.Msisdn})
	}

	// Ad hoc checks share the chunked fan-out but not the provider's run
	// slot, so a dashboard spot check never blocks a full batch.
	state := worker.NewRunState("adhoc:"+string(providerCode), time.Minute)
	if err := state.TryStart(); err != nil {
		return nil, err
	}

	var authFailed atomic.Bool
	s.runner.Run(ctx, state, items, func(ctx context.Context, item worker.BatchItem) error {
		err := s.checkOne(ctx, client, task, item.ID, item.Label)
		if err == socx.ErrUnauthorized {
			authFailed.Store(true)
			state.RequestStop()
		}
		return err
	})

	if authFailed.Load() {
		return nil, utils.ErrSocxTokenInvalid
	}

	result := make([]models.PhoneNumber, 0, len(numbers))
	for _, n := range numbers {
		fresh, err := s.numberRepo.GetByID(n.ID)
		if err != nil {
			continue
		}
		offers, err := s.offerRepo.GetByNumberID(n.ID)
		if err == nil {
			fresh.Offers = offers
		}
		result = append(result, *fresh)
	}
	return result, nil
}
