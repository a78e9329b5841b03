package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"emprendyup-catalog/internal/adapters/upload"
	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/logging"
)

const defaultUploadConcurrency = 3

type SubmitProductDeps struct {
	Products          ProductService
	Uploader          upload.Uploader
	Renderer          DescriptionRenderer
	Variants          *PersistVariants
	Journal           RunJournal
	Logger            logging.LoggerService
	UploadConcurrency int
	OpenImage         func(path string) (upload.File, io.Closer, error)
	Clock             func() time.Time
	IDGenerator       func() string
}

type SubmitProductRequest struct {
	Product      model.Product
	Combinations []model.VariantCombination
}

type SubmitProductResult struct {
	ProductID string
	Created   bool
	Images    []string
	RunID     string
	Variants  PersistVariantsResult
}

// SubmitProduct saves a product and then its variants. Image uploads finish
// before the product is written; the product is written before any variant.
type SubmitProduct struct {
	products    ProductService
	uploader    upload.Uploader
	renderer    DescriptionRenderer
	variants    *PersistVariants
	journal     RunJournal
	logger      logging.LoggerService
	concurrency int
	openImage   func(path string) (upload.File, io.Closer, error)
	now         func() time.Time
	newID       func() string
}

func NewSubmitProduct(deps SubmitProductDeps) *SubmitProduct {
	concurrency := deps.UploadConcurrency
	if concurrency <= 0 {
		concurrency = defaultUploadConcurrency
	}
	openImage := deps.OpenImage
	if openImage == nil {
		openImage = upload.Open
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &SubmitProduct{
		products:    deps.Products,
		uploader:    deps.Uploader,
		renderer:    deps.Renderer,
		variants:    deps.Variants,
		journal:     deps.Journal,
		logger:      deps.Logger,
		concurrency: concurrency,
		openImage:   openImage,
		now:         now,
		newID:       newID,
	}
}

func (u *SubmitProduct) Run(ctx context.Context, req SubmitProductRequest) (SubmitProductResult, error) {
	product := req.Product
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return SubmitProductResult{}, ErrProductNameRequired
	}

	images, err := u.uploadImages(ctx, product.Images)
	if err != nil {
		u.logError("Product submission aborted on image upload", err)
		return SubmitProductResult{}, err
	}
	product.Images = images

	if u.renderer != nil {
		html, err := u.renderer.RenderDescription(product.Description)
		if err != nil {
			return SubmitProductResult{}, err
		}
		product.Description = html
	}

	result := SubmitProductResult{Images: images}
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		productID, err = u.products.CreateProduct(ctx, product)
		if err != nil {
			u.logError("Error create product", err)
			return SubmitProductResult{}, err
		}
		result.Created = true
	} else if err := u.products.UpdateProduct(ctx, productID, product); err != nil {
		u.logError("Error update product", err)
		return SubmitProductResult{}, err
	}
	result.ProductID = productID
	u.log(fmt.Sprintf("Product saved id=%s created=%t images=%d", productID, result.Created, len(images)))

	if len(req.Combinations) == 0 || u.variants == nil {
		return result, nil
	}

	variantsResult, err := u.variants.Run(ctx, PersistVariantsRequest{
		ProductID:    productID,
		BasePrice:    product.Price,
		Combinations: req.Combinations,
	})
	result.Variants = variantsResult
	result.RunID = u.recordRun(ctx, productID, variantsResult, err)
	if err != nil {
		return result, &VariantSaveError{ProductID: productID, Err: err}
	}
	return result, nil
}

// uploadImages replaces local image paths with uploaded URLs, keeping order.
// Remote URLs pass through untouched.
func (u *SubmitProduct) uploadImages(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, len(refs))
	if u.uploader == nil {
		for _, ref := range refs {
			if ref = strings.TrimSpace(ref); ref != "" && !upload.IsRemote(ref) {
				return nil, &UploadError{Image: ref, Err: errors.New("no uploader configured")}
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for i, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" || upload.IsRemote(ref) {
			out[i] = ref
			continue
		}
		g.Go(func() error {
			file, closer, err := u.openImage(ref)
			if err != nil {
				return &UploadError{Image: ref, Err: err}
			}
			defer closer.Close()

			res, err := u.uploader.Upload(gctx, file)
			if err != nil {
				return &UploadError{Image: ref, Err: err}
			}
			out[i] = res.URL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := out[:0]
	for _, url := range out {
		if url != "" {
			images = append(images, url)
		}
	}
	return images, nil
}

func (u *SubmitProduct) recordRun(ctx context.Context, productID string, res PersistVariantsResult, runErr error) string {
	if u.journal == nil {
		return ""
	}
	run := model.SaveRun{
		ID:                  u.newID(),
		ProductID:           productID,
		Status:              model.SaveRunSucceeded,
		Updated:             res.Updated,
		VariantsCreated:     res.VariantsCreated,
		CombinationsCreated: len(res.Created),
		CreatedAt:           u.now().UTC(),
	}
	for _, c := range res.Unresolved {
		run.Unresolved = append(run.Unresolved, c.DisplayName)
	}
	if runErr != nil {
		run.Status = model.SaveRunFailed
		run.Error = runErr.Error()
		var persistErr *PersistError
		var unresolvedErr *UnresolvedError
		switch {
		case errors.As(runErr, &persistErr):
			run.Phase = persistErr.Phase
		case errors.As(runErr, &unresolvedErr):
			run.Phase = PhaseUnresolved
		}
	}
	if err := u.journal.RecordRun(ctx, run); err != nil {
		u.logWarning(fmt.Sprintf("Save run not journaled product=%s run=%s err=%v", productID, run.ID, err))
		return ""
	}
	return run.ID
}

func (u *SubmitProduct) log(msg string) {
	if u.logger != nil {
		u.logger.Log(msg)
	}
}

func (u *SubmitProduct) logWarning(msg string) {
	if u.logger != nil {
		u.logger.LogWarning(msg)
	}
}

func (u *SubmitProduct) logError(msg string, err error) {
	if u.logger != nil {
		u.logger.LogError(msg, err)
	}
}
