// Binary coupon-import loads bulk promo code dumps into the coupons table.
// A code counts as valid when it appears in at least two of the dump files.
// The dumps are far too large for an in-memory set, so the importer streams
// each file twice: the first pass fills one bloom filter per file, the second
// pass collects the codes that other files' filters also claim to contain.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/woodgrove/furnish/internal/domain/coupon"
	"github.com/woodgrove/furnish/internal/repository"
)

const (
	dumpCount     = 3
	filterSize    = 120_000_000
	filterFPR     = 0.001
	minCodeLen    = 8
	maxCodeLen    = 10
	progressEvery = 10_000_000
)

// discountFor returns the percent for a known promo code; everything else
// gets the stock ten percent.
func discountFor(code string) int {
	known := map[string]int{
		"FIFTYOFF": 50,
		"SIXTYOFF": 60,
		"FREEZAAA": 100,
		"GNULINUX": 15,
		"HAPPYHRS": 18,
		"WOODWORK": 25,
	}
	if p, ok := known[code]; ok {
		return p
	}
	return 10
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)
	flag.StringVar(&dataDir, "data-dir", "data", "directory containing couponbaseN.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	job := importJob{dataDir: dataDir}
	if err := job.run(ctx, databaseURL); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("coupon import done")
}

type importJob struct {
	dumps []string

	dataDir string
}

func (j *importJob) run(ctx context.Context, databaseURL string) error {
	j.dumps = make([]string, dumpCount)
	for i := range j.dumps {
		j.dumps[i] = filepath.Join(j.dataDir, fmt.Sprintf("couponbase%d.gz", i+1))
		if _, err := os.Stat(j.dumps[i]); err != nil {
			return errors.Wrap(err, "check dump file")
		}
	}

	slog.Info("filter pass", slog.Int("dumps", len(j.dumps)))
	filters, err := j.fillFilters(ctx)
	if err != nil {
		return errors.Wrap(err, "fill filters")
	}

	slog.Info("collect pass")
	valid, err := j.collectValid(ctx, filters)
	if err != nil {
		return errors.Wrap(err, "collect valid codes")
	}
	slog.Info("codes collected", slog.Int("valid", len(valid)))
	if len(valid) == 0 {
		return nil
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return j.store(ctx, repository.NewCouponRepository(pool), valid)
}

// fillFilters streams every dump once and returns a bloom filter per dump.
func (j *importJob) fillFilters(ctx context.Context) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(j.dumps))

	g, ctx := errgroup.WithContext(ctx)
	for i := range j.dumps {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(filterSize, filterFPR)
			seen, err := j.eachCode(ctx, i, func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return err
			}
			slog.Info("filter filled", slog.Int("dump", i+1), slog.Uint64("codes", seen))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// collectValid streams every dump a second time and keeps the codes that at
// least one other dump's filter also claims. A code is valid when two or
// more dumps contain it, so the per-dump candidate sets are merged by
// membership count.
func (j *importJob) collectValid(ctx context.Context, filters []*bloom.BloomFilter) ([]string, error) {
	perDump := make([]map[string]struct{}, len(j.dumps))

	g, ctx := errgroup.WithContext(ctx)
	for i := range j.dumps {
		g.Go(func() error {
			candidates := make(map[string]struct{})
			seen, err := j.eachCode(ctx, i, func(code string) {
				for other, f := range filters {
					if other == i {
						continue
					}
					if f.TestString(code) {
						candidates[code] = struct{}{}
						break
					}
				}
			})
			if err != nil {
				return err
			}
			slog.Info("dump scanned",
				slog.Int("dump", i+1),
				slog.Uint64("codes", seen),
				slog.Int("candidates", len(candidates)),
			)
			perDump[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hits := make(map[string]int)
	for _, candidates := range perDump {
		for code := range candidates {
			hits[code]++
		}
	}

	var valid []string
	for code, n := range hits {
		if n >= 2 {
			valid = append(valid, code)
		}
	}
	return valid, nil
}

// eachCode streams one gzipped dump line by line, calling fn for every line
// of plausible code length. It returns the number of codes seen.
func (j *importJob) eachCode(ctx context.Context, idx int, fn func(code string)) (uint64, error) {
	path := j.dumps[idx]

	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrapf(err, "gunzip %s", path)
	}
	defer func() { _ = gz.Close() }()

	var seen uint64
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return seen, err
		}
		code := scanner.Text()
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		seen++
		if seen%progressEvery == 0 {
			slog.Info("scan progress", slog.Int("dump", idx+1), slog.Uint64("codes", seen))
		}
		fn(code)
	}
	if err := scanner.Err(); err != nil {
		return seen, errors.Wrapf(err, "scan %s", path)
	}
	return seen, nil
}

func (j *importJob) store(ctx context.Context, repo *repository.CouponRepository, codes []string) error {
	slog.Info("upserting coupons", slog.Int("count", len(codes)))

	for i, code := range codes {
		c, err := coupon.New(code, discountFor(code))
		if err != nil {
			return errors.Wrapf(err, "build coupon %s", code)
		}
		if err := repo.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", code)
		}
		if (i+1)%100 == 0 || i+1 == len(codes) {
			slog.Info("upsert progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}
	return nil
}
