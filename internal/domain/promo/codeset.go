package promo

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Accepted code lengths. Anything outside this range is dropped at load time.
const (
	minCodeLen = 4
	maxCodeLen = 12
)

const bloomFPR = 0.001

// namedRules maps well-known codes to their specific discounts. Every other
// loaded code falls back to defaultRule.
var namedRules = map[string]Rule{
	"FIFTYOFF": {Type: DiscountPercentage, Value: decimal.NewFromInt(50), Description: "50% off the order"},
	"BUYGETON": {Type: DiscountFreeLowest, MinItems: 2, Description: "Cheapest item free (2+ items)"},
	"TENNERPL": {Type: DiscountFixed, Value: decimal.NewFromInt(10), Description: "10 off the order"},
}

var defaultRule = Rule{
	Type:        DiscountPercentage,
	Value:       decimal.NewFromInt(10),
	Description: "Valid promo code: 10% off",
}

// CodeSet answers promo code lookups. A bloom filter screens out unknown
// codes before the exact map is consulted.
type CodeSet struct {
	filter *bloom.BloomFilter
	rules  map[string]Rule
}

// NewCodeSet builds a CodeSet from the given codes. Codes present in
// namedRules keep their specific discount; the rest get defaultRule.
func NewCodeSet(codes []string) *CodeSet {
	n := uint(len(codes))
	if n == 0 {
		n = 1
	}
	cs := &CodeSet{
		filter: bloom.NewWithEstimates(n, bloomFPR),
		rules:  make(map[string]Rule, len(codes)),
	}
	for _, code := range codes {
		cs.add(code)
	}
	return cs
}

func (cs *CodeSet) add(code string) {
	rule, ok := namedRules[code]
	if !ok {
		rule = defaultRule
	}
	rule.Code = code
	cs.filter.AddString(code)
	cs.rules[code] = rule
}

// Lookup returns the rule for the given code, or ErrInvalidCode.
func (cs *CodeSet) Lookup(code string) (*Rule, error) {
	if !cs.filter.TestString(code) {
		return nil, ErrInvalidCode
	}
	rule, ok := cs.rules[code]
	if !ok {
		// Bloom false positive.
		return nil, ErrInvalidCode
	}
	return &rule, nil
}

// Len returns the number of known codes.
func (cs *CodeSet) Len() int {
	return len(cs.rules)
}

// Load reads newline-delimited promo codes from the given files, concurrently,
// and builds a CodeSet. Files ending in .gz are decompressed on the fly.
func Load(ctx context.Context, paths ...string) (*CodeSet, error) {
	var (
		mu    sync.Mutex
		codes []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		g.Go(func() error {
			var fileCodes []string
			if err := streamCodes(ctx, path, func(code string) {
				fileCodes = append(fileCodes, code)
			}); err != nil {
				return errors.Wrapf(err, "read codes from %s", path)
			}
			mu.Lock()
			codes = append(codes, fileCodes...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewCodeSet(codes), nil
}

// streamCodes reads one code per line from path, skipping codes outside the
// accepted length range.
func streamCodes(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		src = gz
	}

	sc := bufio.NewScanner(src)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		code := strings.TrimSpace(sc.Text())
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		fn(code)
	}
	return sc.Err()
}
