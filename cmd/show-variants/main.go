// show-variants prints the variants and combinations stored for one product.
// It never writes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"emprendyup-catalog/internal/adapters/draftstore"
	"emprendyup-catalog/internal/adapters/emprendyup"
	"emprendyup-catalog/internal/app/usecases"
	"emprendyup-catalog/internal/config"
	"emprendyup-catalog/internal/domain/model"
	infrahttp "emprendyup-catalog/internal/infra/http"
	"emprendyup-catalog/internal/infra/mysql"
	"emprendyup-catalog/internal/logging"
)

const showTimeout = 2 * time.Minute

func main() {
	productID := flag.String("product-id", "", "product to inspect")
	failedRuns := flag.Int("failed-runs", 0, "also list this many failed save runs from the draft store")
	envFile := flag.String("env", "", "optional .env file")
	flag.Parse()

	if err := run(*productID, *failedRuns, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error %v\n", err)
		os.Exit(1)
	}
}

func run(productID string, failedRuns int, envFile string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errors.New("-product-id is required")
	}

	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.LoadForVariantSync(envFiles...)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(config.TelegramBotConfig{})
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), showTimeout)
	defer cancel()

	client := emprendyup.NewClient(cfg.API, infrahttp.NewClient(cfg.API.Timeout), logger)

	canonical, err := client.ProductVariantsByProduct(ctx, productID)
	if err != nil {
		return err
	}
	combinations, err := usecases.NewLoadPersistedCombinations(client, logger).Run(ctx, productID)
	if err != nil {
		return err
	}

	out := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	writeVariants(out, canonical)
	fmt.Fprintln(out)
	writeCombinations(out, combinations)

	if failedRuns > 0 && cfg.Mysql.Enabled() {
		db, err := mysql.New(ctx, cfg.Mysql)
		if err != nil {
			return err
		}
		defer db.Close()
		runs, err := draftstore.New(db).ListFailedRuns(ctx, productID, failedRuns)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		writeRuns(out, runs)
	}
	return out.Flush()
}

func writeVariants(w io.Writer, canonical []model.CanonicalVariant) {
	fmt.Fprintln(w, "VARIANT ID\tTYPE\tNAME\tDATA")
	for _, v := range canonical {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", v.ID, v.Type, v.Name, v.AuxData)
	}
}

func writeCombinations(w io.Writer, combinations []model.VariantCombination) {
	fmt.Fprintln(w, "STOCK RECORD\tCOMBINATION\tPRICE\tSTOCK")
	for _, c := range combinations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.PersistedStockRecordID, c.DisplayName, c.Price.StringFixed(2), c.Stock)
	}
}

func writeRuns(w io.Writer, runs []model.SaveRun) {
	fmt.Fprintln(w, "RUN\tAT\tPHASE\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.Phase, r.Error)
	}
}
