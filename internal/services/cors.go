package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/damacus/r2-manager/internal/errs"
	"github.com/damacus/r2-manager/internal/storage"
)

// CORSService reads and replaces the bucket CORS policy.
type CORSService struct {
	store storage.Store
}

func NewCORSService(store storage.Store) *CORSService {
	return &CORSService{store: store}
}

// Rules returns the bucket rules. A bucket without any CORS configuration
// yields an empty, non-nil slice.
func (s *CORSService) Rules(ctx context.Context) ([]storage.CORSRule, error) {
	rules, err := s.store.GetCORS(ctx)
	if errs.IsNoConfiguration(err) {
		return []storage.CORSRule{}, nil
	}
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []storage.CORSRule{}
	}
	return rules, nil
}

// Replace overwrites the bucket rules. Methods are upper-cased and
// MaxAgeSeconds must fit the store's 32-bit field; everything else is
// validated by the store.
func (s *CORSService) Replace(ctx context.Context, rules []storage.CORSRule) error {
	if rules == nil {
		return errs.InvalidArgument("No rules provided")
	}

	normalized := make([]storage.CORSRule, len(rules))
	for i, r := range rules {
		if r.MaxAgeSeconds < 0 || r.MaxAgeSeconds > math.MaxInt32 {
			return errs.InvalidArgument(fmt.Sprintf("rule %d: MaxAgeSeconds must be between 0 and %d", i, math.MaxInt32))
		}
		methods := make([]string, len(r.AllowedMethods))
		for j, m := range r.AllowedMethods {
			methods[j] = strings.ToUpper(strings.TrimSpace(m))
		}
		r.AllowedMethods = methods
		normalized[i] = r
	}
	return s.store.PutCORS(ctx, normalized)
}
