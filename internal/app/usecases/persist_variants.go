package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/infra/retry"
	"emprendyup-catalog/internal/logging"
	"emprendyup-catalog/internal/textutil"
)

type UnresolvedPolicy string

const (
	// UnresolvedFail saves what it can, then returns an UnresolvedError.
	UnresolvedFail UnresolvedPolicy = "fail"
	// UnresolvedSkip only logs skipped combinations.
	UnresolvedSkip UnresolvedPolicy = "skip"

	valueKey = "value"
)

var tracer = otel.Tracer("emprendyup-catalog/internal/app/usecases")

var defaultPollPolicy = retry.Policy{
	MaxAttempts: 5,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    5 * time.Second,
}

func ParseUnresolvedPolicy(value string) (UnresolvedPolicy, error) {
	switch UnresolvedPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", UnresolvedFail:
		return UnresolvedFail, nil
	case UnresolvedSkip:
		return UnresolvedSkip, nil
	}
	return "", fmt.Errorf("unknown unresolved policy %q", value)
}

type PersistVariantsDeps struct {
	Variants     VariantService
	Combinations CombinationService
	Logger       logging.LoggerService
	Poll         retry.Policy
	Unresolved   UnresolvedPolicy
	Sleep        func(ctx context.Context, d time.Duration) error
}

type PersistVariantsRequest struct {
	ProductID    string
	BasePrice    decimal.Decimal
	Combinations []model.VariantCombination
}

// CreatedCombination links a local combination to the records created for it.
type CreatedCombination struct {
	LocalID       string
	DisplayName   string
	CombinationID string
	StockPriceID  string
}

type PersistVariantsResult struct {
	Updated         int
	VariantsCreated int
	Created         []CreatedCombination
	Unresolved      []UnresolvedCombination
}

// PersistVariants writes the variants and stock records of one product in
// dependent phases: stock updates, variant diff, batch variant creation with
// polling, then combination creation.
type PersistVariants struct {
	variants     VariantService
	combinations CombinationService
	logger       logging.LoggerService
	poll         retry.Policy
	unresolved   UnresolvedPolicy
	sleep        func(ctx context.Context, d time.Duration) error
}

func NewPersistVariants(deps PersistVariantsDeps) *PersistVariants {
	poll := deps.Poll
	if poll.MaxAttempts <= 0 {
		poll = defaultPollPolicy
	}
	policy := deps.Unresolved
	if policy == "" {
		policy = UnresolvedFail
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = retry.Sleep
	}
	return &PersistVariants{
		variants:     deps.Variants,
		combinations: deps.Combinations,
		logger:       deps.Logger,
		poll:         poll,
		unresolved:   policy,
		sleep:        sleep,
	}
}

// PartitionCombinations splits combinations into those with a stock record
// (updates) and those without (creates).
func PartitionCombinations(combinations []model.VariantCombination) (toUpdate, toCreate []model.VariantCombination) {
	for _, c := range combinations {
		if c.IsPersisted() {
			toUpdate = append(toUpdate, c)
		} else {
			toCreate = append(toCreate, c)
		}
	}
	return toUpdate, toCreate
}

func (u *PersistVariants) Run(ctx context.Context, req PersistVariantsRequest) (result PersistVariantsResult, err error) {
	ctx, span := tracer.Start(ctx, "PersistVariants.Run", trace.WithAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.Int("combinations", len(req.Combinations)),
	))
	defer func() {
		endSpan(span, err)
	}()

	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return result, ErrProductIDRequired
	}

	toUpdate, toCreate := PartitionCombinations(req.Combinations)
	u.log(fmt.Sprintf("Variant save started product=%s update=%d create=%d", productID, len(toUpdate), len(toCreate)))

	updated, err := u.updatePhase(ctx, req.BasePrice, toUpdate)
	result.Updated = updated
	if err != nil {
		u.logError("Variant save stock update phase failed", err)
		return result, err
	}

	if len(toCreate) == 0 {
		u.logSuccess(fmt.Sprintf("Variant save completed product=%s updated=%d variants_created=0 combinations_created=0", productID, result.Updated))
		return result, nil
	}

	canonical, created, err := u.variantPhase(ctx, productID, toCreate)
	result.VariantsCreated = created
	if err != nil {
		u.logError("Variant save variant phase failed", err)
		return result, err
	}

	made, unresolved, err := u.combinationPhase(ctx, productID, req.BasePrice, toCreate, canonical)
	result.Created = made
	result.Unresolved = unresolved
	if err != nil {
		u.logError("Variant save combination phase failed", err)
		return result, err
	}

	if len(unresolved) > 0 {
		names := make([]string, 0, len(unresolved))
		for _, c := range unresolved {
			names = append(names, c.DisplayName)
		}
		u.logWarning(fmt.Sprintf("Variant save skipped unresolved combinations product=%s count=%d names=%s", productID, len(unresolved), strings.Join(names, ",")))
		if u.unresolved == UnresolvedFail {
			return result, &UnresolvedError{Combinations: unresolved}
		}
	}

	u.logSuccess(fmt.Sprintf(
		"Variant save completed product=%s updated=%d variants_created=%d combinations_created=%d unresolved=%d",
		productID,
		result.Updated,
		result.VariantsCreated,
		len(result.Created),
		len(result.Unresolved),
	))
	return result, nil
}

// updatePhase updates every existing stock record one at a time. All failures
// are collected before the phase reports an error.
func (u *PersistVariants) updatePhase(ctx context.Context, basePrice decimal.Decimal, toUpdate []model.VariantCombination) (updated int, err error) {
	if len(toUpdate) == 0 {
		return 0, nil
	}
	ctx, span := tracer.Start(ctx, "PersistVariants.update", trace.WithAttributes(attribute.Int("combinations", len(toUpdate))))
	defer func() {
		endSpan(span, err)
	}()

	var failures []CombinationFailure
	for _, c := range toUpdate {
		if err := ctx.Err(); err != nil {
			return updated, &PersistError{Phase: PhaseUpdate, Combination: c.DisplayName, Failures: failures, Err: err}
		}
		_, err := u.combinations.UpdateStockForVariantCombination(ctx, c.PersistedStockRecordID, model.StockUpdate{
			Price:     priceFor(c, basePrice),
			Stock:     c.Stock,
			Available: true,
		})
		if err != nil {
			u.logWarning(fmt.Sprintf("Stock update failed combination=%q stock=%s err=%v", c.DisplayName, c.PersistedStockRecordID, err))
			failures = append(failures, CombinationFailure{Combination: c.DisplayName, StockRecordID: c.PersistedStockRecordID, Err: err})
			continue
		}
		updated++
	}

	if len(failures) > 0 {
		errs := make([]error, 0, len(failures))
		for _, f := range failures {
			errs = append(errs, f.Err)
		}
		return updated, &PersistError{Phase: PhaseUpdate, Failures: failures, Err: errors.Join(errs...)}
	}
	return updated, nil
}

// variantPhase makes sure every (type, name) used by toCreate has a canonical
// variant and returns the canonical list the combinations resolve against.
func (u *PersistVariants) variantPhase(ctx context.Context, productID string, toCreate []model.VariantCombination) (canonical []model.CanonicalVariant, created int, err error) {
	ctx, span := tracer.Start(ctx, "PersistVariants.variants")
	defer func() {
		endSpan(span, err)
	}()

	canonical, err = u.variants.ProductVariantsByProduct(ctx, productID)
	if err != nil {
		return nil, 0, &PersistError{Phase: PhaseVariants, Lookup: "productVariantsByProduct", Err: err}
	}

	queue := diffVariants(productID, toCreate, canonical)
	span.SetAttributes(attribute.Int("variants.queued", len(queue)))
	if len(queue) == 0 {
		return canonical, 0, nil
	}

	u.log(fmt.Sprintf("Creating variants product=%s count=%d", productID, len(queue)))
	if _, err := u.variants.CreateVariants(ctx, queue); err != nil {
		return nil, 0, &PersistError{Phase: PhaseVariants, Lookup: "createVariants", Err: err}
	}

	canonical, err = u.waitForVariants(ctx, productID, queue)
	if err != nil {
		return nil, len(queue), err
	}
	return canonical, len(queue), nil
}

// diffVariants queues every entry of toCreate whose (type, name) is neither
// canonical nor already queued.
func diffVariants(productID string, toCreate []model.VariantCombination, canonical []model.CanonicalVariant) []model.VariantInput {
	known := make(map[string]bool, len(canonical))
	for _, v := range canonical {
		known[textutil.PairKey(v.Type, v.Name)] = true
	}

	var queue []model.VariantInput
	for _, c := range toCreate {
		for _, e := range c.SelectedEntries {
			key := textutil.PairKey(e.AxisType, e.Name)
			if known[key] {
				continue
			}
			known[key] = true
			queue = append(queue, model.VariantInput{
				ProductID: productID,
				Type:      e.AxisType,
				Name:      e.Name,
				AuxData:   variantJSONData(e),
			})
		}
	}
	return queue
}

// variantJSONData stores the entry value next to its aux data so it survives
// a round trip through the backend.
func variantJSONData(e model.SelectedEntry) map[string]any {
	if len(e.AuxData) == 0 && (e.Value == "" || e.Value == e.Name) {
		return nil
	}
	out := make(map[string]any, len(e.AuxData)+1)
	for k, v := range e.AuxData {
		out[k] = v
	}
	if e.Value != "" && e.Value != e.Name {
		out[valueKey] = e.Value
	}
	return out
}

// waitForVariants polls the canonical list with backoff until every queued
// variant is visible or the attempts run out.
func (u *PersistVariants) waitForVariants(ctx context.Context, productID string, queue []model.VariantInput) (canonical []model.CanonicalVariant, err error) {
	ctx, span := tracer.Start(ctx, "PersistVariants.poll")
	defer func() {
		endSpan(span, err)
	}()

	attempts := u.poll.Attempts()
	var missing []string
	for attempt := 0; attempt < attempts; attempt++ {
		if err := u.sleep(ctx, u.poll.Delay(attempt)); err != nil {
			return nil, &PersistError{Phase: PhasePoll, Err: err}
		}
		canonical, err = u.variants.ProductVariantsByProduct(ctx, productID)
		if err != nil {
			return nil, &PersistError{Phase: PhasePoll, Lookup: "productVariantsByProduct", Err: err}
		}
		missing = missingVariants(queue, canonical)
		span.SetAttributes(attribute.Int("poll.attempts", attempt+1))
		if len(missing) == 0 {
			return canonical, nil
		}
		u.log(fmt.Sprintf("Waiting for variants product=%s attempt=%d/%d missing=%d", productID, attempt+1, attempts, len(missing)))
	}
	return nil, &PersistError{Phase: PhasePoll, Lookup: strings.Join(missing, ","), Err: ErrVariantsNotVisible}
}

func missingVariants(queue []model.VariantInput, canonical []model.CanonicalVariant) []string {
	visible := make(map[string]bool, len(canonical))
	for _, v := range canonical {
		visible[textutil.PairKey(v.Type, v.Name)] = true
	}
	var missing []string
	for _, q := range queue {
		if !visible[textutil.PairKey(q.Type, q.Name)] {
			missing = append(missing, q.Type+":"+q.Name)
		}
	}
	return missing
}

// combinationPhase creates one combination per fully resolved entry set.
// Partially resolved combinations are never sent.
func (u *PersistVariants) combinationPhase(ctx context.Context, productID string, basePrice decimal.Decimal, toCreate []model.VariantCombination, canonical []model.CanonicalVariant) (created []CreatedCombination, unresolved []UnresolvedCombination, err error) {
	ctx, span := tracer.Start(ctx, "PersistVariants.combinations", trace.WithAttributes(attribute.Int("combinations", len(toCreate))))
	defer func() {
		endSpan(span, err)
	}()

	index := make(map[string]string, len(canonical))
	for _, v := range canonical {
		key := textutil.PairKey(v.Type, v.Name)
		if _, ok := index[key]; !ok && v.ID != "" {
			index[key] = v.ID
		}
	}

	for _, c := range toCreate {
		if err := ctx.Err(); err != nil {
			return created, unresolved, &PersistError{Phase: PhaseCombinations, Combination: c.DisplayName, Err: err}
		}

		ids := make([]string, 0, len(c.SelectedEntries))
		var missing []string
		for _, e := range c.SelectedEntries {
			id, ok := index[textutil.PairKey(e.AxisType, e.Name)]
			if !ok {
				missing = append(missing, e.AxisType+":"+e.Name)
				continue
			}
			ids = append(ids, id)
		}
		if len(missing) > 0 || len(ids) == 0 {
			unresolved = append(unresolved, UnresolvedCombination{ID: c.ID, DisplayName: c.DisplayName, Missing: missing})
			continue
		}

		res, err := u.combinations.CreateVariantCombination(ctx, model.CombinationInput{
			ProductID:  productID,
			VariantIDs: ids,
			Price:      priceFor(c, basePrice),
			Stock:      c.Stock,
		})
		if err != nil {
			return created, unresolved, &PersistError{
				Phase:       PhaseCombinations,
				Combination: c.DisplayName,
				Lookup:      strings.Join(ids, ","),
				Err:         err,
			}
		}
		created = append(created, CreatedCombination{
			LocalID:       c.ID,
			DisplayName:   c.DisplayName,
			CombinationID: res.CombinationID,
			StockPriceID:  res.StockPriceID,
		})
	}
	return created, unresolved, nil
}

// priceFor returns the combination price, or basePrice when the price is an
// unset zero.
func priceFor(c model.VariantCombination, basePrice decimal.Decimal) decimal.Decimal {
	if c.Price.IsZero() && !c.PriceSet {
		return basePrice
	}
	return c.Price
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (u *PersistVariants) log(msg string) {
	if u.logger != nil {
		u.logger.Log(msg)
	}
}

func (u *PersistVariants) logWarning(msg string) {
	if u.logger != nil {
		u.logger.LogWarning(msg)
	}
}

func (u *PersistVariants) logError(msg string, err error) {
	if u.logger != nil {
		u.logger.LogError(msg, err)
	}
}

func (u *PersistVariants) logSuccess(msg string) {
	if u.logger != nil {
		u.logger.LogSuccess(msg)
	}
}
