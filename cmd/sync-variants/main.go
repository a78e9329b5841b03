// sync-variants saves one product described by a YAML draft, together with its
// variant combinations, to the EmprendyUp API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"emprendyup-catalog/internal/adapters/draftstore"
	"emprendyup-catalog/internal/adapters/emprendyup"
	"emprendyup-catalog/internal/adapters/upload"
	"emprendyup-catalog/internal/app/usecases"
	"emprendyup-catalog/internal/app/wizard"
	"emprendyup-catalog/internal/config"
	"emprendyup-catalog/internal/content"
	infrahttp "emprendyup-catalog/internal/infra/http"
	"emprendyup-catalog/internal/infra/mysql"
	"emprendyup-catalog/internal/infra/retry"
	"emprendyup-catalog/internal/logging"
	"emprendyup-catalog/internal/textutil"
)

const runTimeout = 30 * time.Minute

type options struct {
	draftPath         string
	productID         string
	draftKey          string
	confirmRegenerate bool
	listCategories    bool
	envFile           string
}

func main() {
	var opts options
	flag.StringVar(&opts.draftPath, "draft", "", "path to the product draft YAML")
	flag.StringVar(&opts.productID, "product-id", "", "existing product id (edit mode)")
	flag.StringVar(&opts.draftKey, "draft-key", "", "autosave key, defaults to the product id or draft path")
	flag.BoolVar(&opts.confirmRegenerate, "confirm-regenerate", false, "allow regeneration to drop existing combinations")
	flag.BoolVar(&opts.listCategories, "list-categories", false, "print the available categories and exit")
	flag.StringVar(&opts.envFile, "env", "", "optional .env file")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.LoadForVariantSync(envFiles...)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.TelegramBot)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	client := emprendyup.NewClient(cfg.API, infrahttp.NewClient(cfg.API.Timeout), logger)

	if opts.listCategories {
		return printCategories(ctx, client)
	}
	if opts.draftPath == "" {
		return errors.New("-draft is required")
	}

	draft, err := wizard.LoadDraftFile(opts.draftPath)
	if err != nil {
		return err
	}
	product := draft.ProductModel()
	if opts.productID != "" {
		product.ID = strings.TrimSpace(opts.productID)
	}
	logger.Log(fmt.Sprintf("variant sync started product=%q id=%s", product.Name, product.ID))

	var store *draftstore.Store
	if cfg.Mysql.Enabled() {
		db, err := mysql.New(ctx, cfg.Mysql)
		if err != nil {
			return err
		}
		defer db.Close()
		store = draftstore.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	key := textutil.FirstNonEmpty(opts.draftKey, product.ID, opts.draftPath)

	// The draft owns the axes; an autosave only brings back combination state.
	form := wizard.NewForm(wizard.FormDeps{})
	if err := draft.ApplyAxes(form); err != nil {
		return err
	}
	if store != nil {
		snapshot, found, err := store.LoadDraft(ctx, key)
		if err != nil {
			return err
		}
		if found {
			if err := form.ResumeCombinations(snapshot); err != nil {
				logger.LogWarning(fmt.Sprintf("autosaved draft ignored key=%s err=%v", key, err))
			} else {
				logger.Log(fmt.Sprintf("autosaved combinations resumed key=%s count=%d saved_at=%s", key, len(snapshot.Combinations), snapshot.SavedAt.Format(time.RFC3339)))
			}
		}
	}

	if product.ID != "" && len(form.Prior()) == 0 {
		persisted, err := usecases.NewLoadPersistedCombinations(client, logger).Run(ctx, product.ID)
		if err != nil {
			return err
		}
		form.LoadPersisted(persisted)
	}

	if form.HasVariants() {
		if err := generate(form, opts.confirmRegenerate, logger); err != nil {
			return err
		}
		if err := draft.ApplyOverrides(form); err != nil {
			return err
		}
	}
	autosave(ctx, store, key, form, logger)

	uploader, err := upload.FromConfig(ctx, cfg.Upload, infrahttp.NewClient(cfg.Upload.Timeout))
	if err != nil {
		return err
	}
	policy, err := usecases.ParseUnresolvedPolicy(cfg.Sync.UnresolvedPolicy)
	if err != nil {
		return err
	}

	persist := usecases.NewPersistVariants(usecases.PersistVariantsDeps{
		Variants:     client,
		Combinations: client,
		Logger:       logger,
		Poll: retry.Policy{
			MaxAttempts: cfg.Sync.PollAttempts,
			BaseDelay:   cfg.Sync.PollBaseDelay,
			MaxDelay:    cfg.Sync.PollMaxDelay,
		},
		Unresolved: policy,
	})

	var journal usecases.RunJournal
	if store != nil {
		journal = store
	}
	submit := usecases.NewSubmitProduct(usecases.SubmitProductDeps{
		Products:          client,
		Uploader:          uploader,
		Renderer:          content.NewRenderer(),
		Variants:          persist,
		Journal:           journal,
		Logger:            logger,
		UploadConcurrency: cfg.Upload.Concurrency,
	})

	req := usecases.SubmitProductRequest{Product: product}
	if form.HasVariants() {
		req.Combinations = form.Combinations()
	}

	result, err := submit.Run(ctx, req)
	for _, c := range result.Variants.Created {
		if markErr := form.MarkPersisted(c.LocalID, c.StockPriceID); markErr != nil {
			logger.LogWarning(fmt.Sprintf("created combination not in form id=%s", c.LocalID))
		}
	}
	if err != nil {
		var saveErr *usecases.VariantSaveError
		if errors.As(err, &saveErr) {
			// Keep the autosave so a rerun with the product id only retries variants.
			autosave(ctx, store, textutil.FirstNonEmpty(opts.draftKey, saveErr.ProductID), form, logger)
			logger.LogError(fmt.Sprintf("variant sync incomplete, rerun with -product-id=%s", saveErr.ProductID), err)
		}
		return err
	}

	if store != nil {
		if err := store.DeleteDraft(ctx, key); err != nil {
			logger.LogWarning(fmt.Sprintf("autosaved draft not cleared key=%s err=%v", key, err))
		}
	}
	logger.LogSuccess(fmt.Sprintf(
		"variant sync completed product=%s created=%t updated=%d combinations_created=%d run=%s",
		result.ProductID,
		result.Created,
		result.Variants.Updated,
		len(result.Variants.Created),
		result.RunID,
	))
	return nil
}

// generate regenerates combinations. When nothing would be dropped the
// confirmation gate is passed automatically and the override is logged.
func generate(form *wizard.Form, confirm bool, logger logging.LoggerService) error {
	res, err := form.Generate(confirm)
	if errors.Is(err, wizard.ErrRegenerateNeedsConfirmation) {
		if len(res.Dropped) > 0 {
			names := make([]string, 0, len(res.Dropped))
			for _, c := range res.Dropped {
				names = append(names, c.DisplayName)
			}
			logger.LogWarning(fmt.Sprintf("regeneration drops %d combinations: %s", len(names), strings.Join(names, ", ")))
			return fmt.Errorf("%w: rerun with -confirm-regenerate", err)
		}
		logger.Log(fmt.Sprintf("regeneration confirmed automatically, no combinations dropped existing=%d", len(form.Combinations())))
		res, err = form.Generate(true)
	}
	if err != nil {
		return err
	}
	logger.Log(fmt.Sprintf("combinations generated count=%d dropped=%d", len(res.Combinations), len(res.Dropped)))
	return nil
}

func autosave(ctx context.Context, store *draftstore.Store, key string, form *wizard.Form, logger logging.LoggerService) {
	if store == nil {
		return
	}
	if err := store.SaveDraft(ctx, key, form.Snapshot()); err != nil {
		logger.LogWarning(fmt.Sprintf("autosave failed key=%s err=%v", key, err))
	}
}

func printCategories(ctx context.Context, client *emprendyup.Client) error {
	categories, err := client.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Printf("%s\t%s\t%s\n", c.ID, c.Slug, c.Name)
	}
	return nil
}
