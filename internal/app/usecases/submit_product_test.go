package usecases

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"emprendyup-catalog/internal/adapters/upload"
	"emprendyup-catalog/internal/app/variants"
	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/logging"
)

type fakeProducts struct {
	created []model.Product
	updated map[string]model.Product
	err     error
}

func (p *fakeProducts) CreateProduct(_ context.Context, product model.Product) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.created = append(p.created, product)
	return "p-new", nil
}

func (p *fakeProducts) UpdateProduct(_ context.Context, id string, product model.Product) error {
	if p.err != nil {
		return p.err
	}
	if p.updated == nil {
		p.updated = map[string]model.Product{}
	}
	p.updated[id] = product
	return nil
}

type fakeUploader struct {
	mu    sync.Mutex
	names []string
	fail  string
}

func (f *fakeUploader) Upload(_ context.Context, file upload.File) (upload.Result, error) {
	if file.Name == f.fail {
		return upload.Result{}, errors.New("quota exceeded")
	}
	f.mu.Lock()
	f.names = append(f.names, file.Name)
	f.mu.Unlock()
	return upload.Result{Key: file.Name, URL: "https://cdn.example.com/" + file.Name}, nil
}

type upperRenderer struct{}

func (upperRenderer) RenderDescription(source string) (string, error) {
	return "<p>" + strings.ToUpper(source) + "</p>", nil
}

type fakeJournal struct {
	runs []model.SaveRun
}

func (j *fakeJournal) RecordRun(_ context.Context, run model.SaveRun) error {
	j.runs = append(j.runs, run)
	return nil
}

func openFake(path string) (upload.File, io.Closer, error) {
	return upload.File{Name: path, ContentType: "image/png", Body: strings.NewReader("png")}, io.NopCloser(nil), nil
}

type submitFixture struct {
	products *fakeProducts
	uploader *fakeUploader
	backend  *fakeBackend
	journal  *fakeJournal
	uc       *SubmitProduct
}

func newSubmitFixture() *submitFixture {
	f := &submitFixture{
		products: &fakeProducts{},
		uploader: &fakeUploader{},
		backend:  &fakeBackend{},
		journal:  &fakeJournal{},
	}
	f.uc = NewSubmitProduct(SubmitProductDeps{
		Products:    f.products,
		Uploader:    f.uploader,
		Renderer:    upperRenderer{},
		Variants:    newPersist(f.backend, &recordingSleep{}, UnresolvedFail),
		Journal:     f.journal,
		Logger:      logging.Nop(),
		OpenImage:   openFake,
		Clock:       func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		IDGenerator: func() string { return "run-1" },
	})
	return f
}

func TestSubmitProductCreatesProductThenVariants(t *testing.T) {
	t.Parallel()

	f := newSubmitFixture()
	res, err := f.uc.Run(context.Background(), SubmitProductRequest{
		Product: model.Product{
			Name:        " Camiseta ",
			Description: "algodón",
			Price:       decimal.NewFromInt(1000),
			Images:      []string{"front.png", "https://cdn.example.com/existing.jpg", "back.png"},
		},
		Combinations: variants.Generate(redSmall(), decimal.NewFromInt(1000)),
	})
	require.NoError(t, err)

	require.True(t, res.Created)
	require.Equal(t, "p-new", res.ProductID)
	require.Equal(t, []string{
		"https://cdn.example.com/front.png",
		"https://cdn.example.com/existing.jpg",
		"https://cdn.example.com/back.png",
	}, res.Images)

	require.Len(t, f.products.created, 1)
	saved := f.products.created[0]
	require.Equal(t, "Camiseta", saved.Name)
	require.Equal(t, "<p>ALGODÓN</p>", saved.Description)
	require.Equal(t, res.Images, saved.Images)

	require.Len(t, f.backend.createCombos, 1)
	require.Equal(t, "p-new", f.backend.createCombos[0].ProductID)

	require.Equal(t, "run-1", res.RunID)
	require.Len(t, f.journal.runs, 1)
	run := f.journal.runs[0]
	require.Equal(t, model.SaveRunSucceeded, run.Status)
	require.Equal(t, "p-new", run.ProductID)
	require.Equal(t, 2, run.VariantsCreated)
	require.Equal(t, 1, run.CombinationsCreated)
	require.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), run.CreatedAt)
}

func TestSubmitProductUpdatesExistingProduct(t *testing.T) {
	t.Parallel()

	f := newSubmitFixture()
	res, err := f.uc.Run(context.Background(), SubmitProductRequest{
		Product: model.Product{ID: "p-7", Name: "Gorra"},
	})
	require.NoError(t, err)
	require.False(t, res.Created)
	require.Equal(t, "p-7", res.ProductID)
	require.Contains(t, f.products.updated, "p-7")
	require.Empty(t, f.journal.runs, "no variants means no journaled run")
}

func TestSubmitProductUploadFailureAbortsBeforeSave(t *testing.T) {
	t.Parallel()

	f := newSubmitFixture()
	f.uploader.fail = "back.png"

	_, err := f.uc.Run(context.Background(), SubmitProductRequest{
		Product:      model.Product{Name: "Camiseta", Images: []string{"front.png", "back.png"}},
		Combinations: variants.Generate(redSmall(), decimal.NewFromInt(1)),
	})

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	require.Equal(t, "back.png", uploadErr.Image)
	require.Empty(t, f.products.created)
	require.Empty(t, f.backend.createVariants)
	require.Empty(t, f.journal.runs)
}

func TestSubmitProductWithoutUploaderRejectsLocalImages(t *testing.T) {
	t.Parallel()

	products := &fakeProducts{}
	uc := NewSubmitProduct(SubmitProductDeps{Products: products})

	_, err := uc.Run(context.Background(), SubmitProductRequest{
		Product: model.Product{Name: "Camiseta", Images: []string{"local.png"}},
	})
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	require.Empty(t, products.created)
}

func TestSubmitProductVariantFailureKeepsProduct(t *testing.T) {
	t.Parallel()

	f := newSubmitFixture()
	f.backend.createComboErr = errors.New("stock service unavailable")

	res, err := f.uc.Run(context.Background(), SubmitProductRequest{
		Product:      model.Product{Name: "Camiseta", Price: decimal.NewFromInt(10)},
		Combinations: variants.Generate(redSmall(), decimal.NewFromInt(10)),
	})

	var saveErr *VariantSaveError
	require.ErrorAs(t, err, &saveErr)
	require.Equal(t, "p-new", saveErr.ProductID)
	require.Equal(t, "p-new", res.ProductID)
	require.Len(t, f.products.created, 1)

	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	require.Equal(t, PhaseCombinations, persistErr.Phase)

	require.Len(t, f.journal.runs, 1)
	run := f.journal.runs[0]
	require.Equal(t, model.SaveRunFailed, run.Status)
	require.Equal(t, PhaseCombinations, run.Phase)
	require.Contains(t, run.Error, "stock service unavailable")
}

func TestSubmitProductJournalsUnresolvedCombinations(t *testing.T) {
	t.Parallel()

	f := newSubmitFixture()
	f.backend.variants = []model.CanonicalVariant{{Type: "size", Name: "S"}}

	_, err := f.uc.Run(context.Background(), SubmitProductRequest{
		Product:      model.Product{Name: "Camiseta"},
		Combinations: variants.Generate(redSmall(), decimal.NewFromInt(10)),
	})

	var unresolvedErr *UnresolvedError
	require.ErrorAs(t, err, &unresolvedErr)
	require.Len(t, f.journal.runs, 1)
	require.Equal(t, PhaseUnresolved, f.journal.runs[0].Phase)
	require.Equal(t, []string{"Red - S"}, f.journal.runs[0].Unresolved)
}

func TestSubmitProductRequiresName(t *testing.T) {
	t.Parallel()

	f := newSubmitFixture()
	_, err := f.uc.Run(context.Background(), SubmitProductRequest{Product: model.Product{Name: "  "}})
	require.ErrorIs(t, err, ErrProductNameRequired)
	require.Empty(t, f.products.created)
}
