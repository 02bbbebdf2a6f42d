package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/PulsaGit/promo_api/internal/cache"
	"github.com/PulsaGit/promo_api/internal/utils"
	"github.com/PulsaGit/promo_api/pkg/socx"
)

// AutoCodePrefix marks promo codes created by the reconciler. Cleanup only
// ever touches prefixed codes, so manually curated catalog entries survive.
const AutoCodePrefix = "O4U"

// SyncPromo is one promo the caller wants published on the catalog.
type SyncPromo struct {
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// SyncRequest is the input to a catalog reconciliation run.
type SyncRequest struct {
	ProductCode string      `json:"socx_code" binding:"required"`
	Promos      []SyncPromo `json:"promos" binding:"required"`
	ProvidersID int         `json:"providers_id"`
	CategoryID  int         `json:"categories_id"`
	SellerID    int         `json:"suppliers_id"`
	ModuleIDs   []int       `json:"module_ids"`
}

// SyncSummary aggregates what a reconciliation run did remotely.
type SyncSummary struct {
	Matched             int  `json:"matched"`
	Deleted             int  `json:"deleted"`
	Created             int  `json:"created"`
	Updated             int  `json:"updated"`
	Skipped             int  `json:"skipped"`
	MaxPrice            int  `json:"max_price"`
	ProductPriceUpdated bool `json:"product_price_updated"`
}

// SyncProductState captures the catalog product before and after the run.
type SyncProductState struct {
	ID    int    `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// SyncResult is the full outcome of a reconciliation run.
type SyncResult struct {
	ProductBefore SyncProductState `json:"productBefore"`
	ProductAfter  SyncProductState `json:"productAfter"`
	Summary       SyncSummary      `json:"summary"`
	Details       []string         `json:"details"`
}

// CatalogSyncService converges the remote catalog's association graph with
// a requested promo list: stale auto-generated entries go away, missing
// ones are created, prices are patched in place, and priorities are
// re-ranked so the cheapest promo always sells first.
type CatalogSyncService struct {
	settingsSvc *SettingsService
	moduleCache *cache.ModuleCache
}

// NewCatalogSyncService constructs a CatalogSyncService.
func NewCatalogSyncService(settingsSvc *SettingsService, moduleCache *cache.ModuleCache) *CatalogSyncService {
	return &CatalogSyncService{settingsSvc: settingsSvc, moduleCache: moduleCache}
}

// autoCode derives the reconciler-managed code for a promo.
func autoCode(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(strings.ToUpper(code), AutoCodePrefix) {
		return strings.ToUpper(code)
	}
	return AutoCodePrefix + strings.ToUpper(code)
}

func isAutoCode(code string) bool {
	return strings.HasPrefix(strings.ToUpper(code), AutoCodePrefix)
}

type assocKey struct {
	code     string
	moduleID int
}

// Sync runs the reconciliation algorithm. Per-cell remote failures are
// recorded in the detail log and counted as skipped; only unresolvable
// input and a remote 401 abort the whole run.
func (s *CatalogSyncService) Sync(ctx context.Context, userID int, req SyncRequest) (*SyncResult, error) {
	client, err := s.settingsSvc.SocxClient(userID)
	if err != nil {
		return nil, err
	}
	return s.syncWithClient(ctx, client, req)
}

func (s *CatalogSyncService) syncWithClient(ctx context.Context, client *socx.Client, req SyncRequest) (*SyncResult, error) {
	if len(req.Promos) == 0 {
		return nil, utils.ErrEmptyPromos
	}

	product, err := client.FindProductByCode(ctx, req.ProvidersID, req.CategoryID, req.ProductCode)
	if err != nil {
		return nil, s.fatal(err)
	}
	if product == nil {
		return nil, utils.ErrProductNotFound
	}

	result := &SyncResult{
		ProductBefore: SyncProductState{
			ID:    product.ID.Int(),
			Code:  product.Code,
			Name:  product.Name,
			Price: product.Price.Int(),
		},
	}

	assocs, err := client.ListAssociations(ctx, product.ID.Int())
	if err != nil {
		return nil, s.fatal(err)
	}

	byCodeModule := make(map[assocKey]*socx.Association, len(assocs))
	maxPriority := 0
	for i := range assocs {
		a := &assocs[i]
		byCodeModule[assocKey{strings.ToUpper(a.Code), a.SuppliersModulesID.Int()}] = a
		if a.Priority.Int() > maxPriority {
			maxPriority = a.Priority.Int()
		}
	}

	modules, err := s.resolveModules(ctx, client, req.SellerID, req.ModuleIDs)
	if err != nil {
		return nil, err
	}

	selectedModule := make(map[int]bool, len(modules))
	for _, m := range modules {
		selectedModule[m.ID.Int()] = true
	}

	// Promo set, keyed by the reconciler-managed code.
	promos := make([]SyncPromo, len(req.Promos))
	copy(promos, req.Promos)
	inSet := make(map[string]bool, len(promos))
	for _, p := range promos {
		inSet[autoCode(p.Code)] = true
	}

	// Cleanup pass A: auto-generated entries in selected modules whose
	// code is no longer wanted.
	for i := range assocs {
		a := &assocs[i]
		if !isAutoCode(a.Code) || !selectedModule[a.SuppliersModulesID.Int()] {
			continue
		}
		if inSet[strings.ToUpper(a.Code)] {
			continue
		}
		if err := client.DeleteAssociation(ctx, a.ID.Int()); err != nil {
			if fatal := s.fatal(err); fatal == utils.ErrSocxTokenInvalid {
				return nil, fatal
			}
			result.Details = append(result.Details, fmt.Sprintf("delete %s/module %d failed: %v", a.Code, a.SuppliersModulesID.Int(), err))
			continue
		}
		delete(byCodeModule, assocKey{strings.ToUpper(a.Code), a.SuppliersModulesID.Int()})
		result.Summary.Deleted++
		result.Details = append(result.Details, fmt.Sprintf("deleted stale %s from module %d", a.Code, a.SuppliersModulesID.Int()))
	}

	// Cleanup pass B: with an explicit module subset, wanted codes must
	// not linger on modules outside the selection.
	if len(req.ModuleIDs) > 0 {
		for i := range assocs {
			a := &assocs[i]
			if !isAutoCode(a.Code) || selectedModule[a.SuppliersModulesID.Int()] {
				continue
			}
			if !inSet[strings.ToUpper(a.Code)] {
				continue
			}
			if err := client.DeleteAssociation(ctx, a.ID.Int()); err != nil {
				if fatal := s.fatal(err); fatal == utils.ErrSocxTokenInvalid {
					return nil, fatal
				}
				result.Details = append(result.Details, fmt.Sprintf("delete %s/module %d failed: %v", a.Code, a.SuppliersModulesID.Int(), err))
				continue
			}
			delete(byCodeModule, assocKey{strings.ToUpper(a.Code), a.SuppliersModulesID.Int()})
			result.Summary.Deleted++
			result.Details = append(result.Details, fmt.Sprintf("deleted %s from unselected module %d", a.Code, a.SuppliersModulesID.Int()))
		}
	}

	// Ranking order for creation is fixed here: cheapest first.
	sort.SliceStable(promos, func(i, j int) bool { return promos[i].Price < promos[j].Price })

	resaleByCode, err := s.loadResaleProducts(ctx, client, req.SellerID)
	if err != nil {
		return nil, s.fatal(err)
	}

	priorityCounter := maxPriority + 1
	maxPrice := 0

	for _, promo := range promos {
		code := autoCode(promo.Code)
		if promo.Price > maxPrice {
			maxPrice = promo.Price
		}

		resale, err := s.resolveResaleProduct(ctx, client, resaleByCode, req.SellerID, code, promo)
		if err != nil {
			if fatal := s.fatal(err); fatal == utils.ErrSocxTokenInvalid {
				return nil, fatal
			}
			result.Summary.Skipped += len(modules)
			result.Details = append(result.Details, fmt.Sprintf("resale product %s unavailable: %v", code, err))
			continue
		}

		priceUpdated := false
		for _, m := range modules {
			moduleID := m.ID.Int()
			if existing, ok := byCodeModule[assocKey{code, moduleID}]; ok {
				result.Summary.Matched++
				current := existing.Price.Int()
				if current == 0 {
					current = resale.Price.Int()
				}
				if current == promo.Price {
					result.Summary.Skipped++
					continue
				}
				if priceUpdated {
					// Resale product is shared across modules; one
					// price patch covers every association.
					result.Summary.Skipped++
					continue
				}
				if err := client.UpdateResaleProductPrice(ctx, resale.ID.Int(), promo.Price); err != nil {
					if fatal := s.fatal(err); fatal == utils.ErrSocxTokenInvalid {
						return nil, fatal
					}
					result.Details = append(result.Details, fmt.Sprintf("price update %s failed: %v", code, err))
					continue
				}
				priceUpdated = true
				result.Summary.Updated++
				result.Details = append(result.Details, fmt.Sprintf("updated %s price %d -> %d", code, current, promo.Price))
				continue
			}

			createReq := socx.CreateAssociationRequest{
				ProductsID:          product.ID.Int(),
				ProductCode:         product.Code,
				Code:                code,
				SuppliersProductsID: resale.ID.Int(),
				SuppliersModulesID:  moduleID,
				Priority:            priorityCounter,
				Status:              1,
			}
			if err := client.CreateAssociation(ctx, createReq); err != nil {
				if fatal := s.fatal(err); fatal == utils.ErrSocxTokenInvalid {
					return nil, fatal
				}
				result.Summary.Skipped++
				result.Details = append(result.Details, fmt.Sprintf("create %s/module %d failed: %v", code, moduleID, err))
				continue
			}
			priorityCounter++
			result.Summary.Created++
			result.Details = append(result.Details, fmt.Sprintf("created %s on module %d", code, moduleID))
		}
	}

	// Global re-rank over the post-convergence graph, legacy codes
	// included, so remote selection order tracks price everywhere.
	if err := s.renormalizePriorities(ctx, client, product.ID.Int(), result); err != nil {
		return nil, err
	}

	result.Summary.MaxPrice = maxPrice
	if maxPrice > 0 && maxPrice != product.Price.Int() {
		if err := client.UpdateProductPrice(ctx, product.ID.Int(), maxPrice); err != nil {
			if fatal := s.fatal(err); fatal == utils.ErrSocxTokenInvalid {
				return nil, fatal
			}
			result.Details = append(result.Details, fmt.Sprintf("product price update failed: %v", err))
		} else {
			result.Summary.ProductPriceUpdated = true
		}
	}

	result.ProductAfter = result.ProductBefore
	if result.Summary.ProductPriceUpdated {
		result.ProductAfter.Price = maxPrice
	}

	log.Info().
		Str("product_code", product.Code).
		Int("created", result.Summary.Created).
		Int("updated", result.Summary.Updated).
		Int("deleted", result.Summary.Deleted).
		Int("matched", result.Summary.Matched).
		Msg("Catalog sync finished")

	return result, nil
}

// resolveModules returns the active modules the run will touch, honoring
// an explicit subset when given. An empty selection out of a cached list
// may mean the cache predates newly added modules, so the list is
// re-fetched once before the selection is rejected.
func (s *CatalogSyncService) resolveModules(ctx context.Context, client *socx.Client, sellerID int, moduleIDs []int) ([]socx.Module, error) {
	modules := s.moduleCache.Get(ctx, client.BaseURL(), sellerID)
	fromCache := modules != nil
	if modules == nil {
		fetched, err := client.ListModules(ctx, sellerID)
		if err != nil {
			return nil, s.fatal(err)
		}
		modules = fetched
		s.moduleCache.Set(ctx, client.BaseURL(), sellerID, modules)
	}

	selected := filterModules(modules, moduleIDs)
	if len(selected) == 0 && fromCache {
		s.moduleCache.Invalidate(ctx, client.BaseURL(), sellerID)
		fetched, err := client.ListModules(ctx, sellerID)
		if err != nil {
			return nil, s.fatal(err)
		}
		s.moduleCache.Set(ctx, client.BaseURL(), sellerID, fetched)
		selected = filterModules(fetched, moduleIDs)
	}
	if len(selected) == 0 {
		return nil, utils.ErrInvalidModuleSelection
	}
	return selected, nil
}

func filterModules(modules []socx.Module, moduleIDs []int) []socx.Module {
	wanted := make(map[int]bool, len(moduleIDs))
	for _, id := range moduleIDs {
		wanted[id] = true
	}

	selected := make([]socx.Module, 0, len(modules))
	for _, m := range modules {
		if !m.Active() {
			continue
		}
		if len(moduleIDs) > 0 && !wanted[m.ID.Int()] {
			continue
		}
		selected = append(selected, m)
	}
	return selected
}

func (s *CatalogSyncService) loadResaleProducts(ctx context.Context, client *socx.Client, sellerID int) (map[string]*socx.ResaleProduct, error) {
	list, err := client.ListResaleProducts(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*socx.ResaleProduct, len(list))
	for i := range list {
		out[strings.ToUpper(list[i].Code)] = &list[i]
	}
	return out, nil
}

// resolveResaleProduct finds the seller's resale product for a code,
// creating it lazily on first use.
func (s *CatalogSyncService) resolveResaleProduct(ctx context.Context, client *socx.Client, resaleByCode map[string]*socx.ResaleProduct, sellerID int, code string, promo SyncPromo) (*socx.ResaleProduct, error) {
	if rp, ok := resaleByCode[code]; ok {
		return rp, nil
	}

	name := promo.Name
	if name == "" {
		name = code
	}
	created, err := client.CreateResaleProduct(ctx, socx.CreateResaleProductRequest{
		SuppliersID: sellerID,
		Code:        code,
		Name:        name,
		Price:       promo.Price,
	})
	if err != nil {
		return nil, err
	}
	resaleByCode[code] = created
	return created, nil
}

// renormalizePriorities patches priority to the 1-based price rank for
// every association whose stored priority differs.
func (s *CatalogSyncService) renormalizePriorities(ctx context.Context, client *socx.Client, productID int, result *SyncResult) error {
	assocs, err := client.ListAssociations(ctx, productID)
	if err != nil {
		return s.fatal(err)
	}

	sort.SliceStable(assocs, func(i, j int) bool {
		return assocs[i].Price.Int() < assocs[j].Price.Int()
	})

	rank := 0
	lastPrice := -1
	for i := range assocs {
		a := &assocs[i]
		if a.Price.Int() != lastPrice {
			rank++
			lastPrice = a.Price.Int()
		}
		if a.Priority.Int() == rank {
			continue
		}
		if err := client.UpdateAssociationPriority(ctx, a.ID.Int(), rank); err != nil {
			if fatal := s.fatal(err); fatal == utils.ErrSocxTokenInvalid {
				return fatal
			}
			result.Details = append(result.Details, fmt.Sprintf("re-rank %s failed: %v", a.Code, err))
			continue
		}
		result.Details = append(result.Details, fmt.Sprintf("re-ranked %s to priority %d", a.Code, rank))
	}
	return nil
}

// fatal maps a remote 401 onto the stable token error; anything else
// passes through for per-cell handling.
func (s *CatalogSyncService) fatal(err error) error {
	if err == socx.ErrUnauthorized {
		return utils.ErrSocxTokenInvalid
	}
	return err
}
