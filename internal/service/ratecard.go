package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/domain/ratecard"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// RateCardService manages the Meta rate card and answers rate lookups
type RateCardService interface {
	UpsertEntry(ctx context.Context, req dto.UpsertRateCardEntryRequest) (*dto.RateCardEntryResponse, error)
	ListEntries(ctx context.Context, filter *types.RateCardFilter) (*dto.ListResponse[*ratecard.Entry], error)

	// FindEffectiveRate returns the tier covering volume in the most recent schedule
	// effective on asOf, or ratecard.ErrRateNotFound
	FindEffectiveRate(ctx context.Context, market string, category types.MessageCategory, volume uint64, asOf time.Time) (*ratecard.Entry, error)

	// UploadBaseRates loads one flat rate per category column
	UploadBaseRates(ctx context.Context, fileContent []byte, effectiveDate time.Time) (*dto.RateCardUploadResponse, error)

	// UploadVolumeTiers loads one tier per row
	UploadVolumeTiers(ctx context.Context, fileContent []byte, effectiveDate time.Time) (*dto.RateCardUploadResponse, error)
}

type rateCardService struct {
	ServiceParams
	csv *CSVProcessor
}

func NewRateCardService(params ServiceParams) RateCardService {
	return &rateCardService{
		ServiceParams: params,
		csv:           NewCSVProcessor(params.Logger),
	}
}

func (s *rateCardService) UpsertEntry(ctx context.Context, req dto.UpsertRateCardEntryRequest) (*dto.RateCardEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry, err := req.ToEntry(ctx, s.Clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.RateCardRepo.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	stored, err := s.RateCardRepo.Get(ctx, entry.Key())
	if err != nil {
		return nil, err
	}
	return &dto.RateCardEntryResponse{Entry: stored}, nil
}

func (s *rateCardService) ListEntries(ctx context.Context, filter *types.RateCardFilter) (*dto.ListResponse[*ratecard.Entry], error) {
	entries, err := s.RateCardRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewListResponse(entries), nil
}

func (s *rateCardService) FindEffectiveRate(ctx context.Context, market string, category types.MessageCategory, volume uint64, asOf time.Time) (*ratecard.Entry, error) {
	if !s.Config.Billing.VolumeTieringEnabled {
		volume = s.Config.Billing.DefaultVolumeTier
	}

	tiers, err := s.RateCardRepo.ListEffective(ctx, market, category, asOf)
	if err != nil {
		return nil, err
	}

	tier := ratecard.SelectTier(tiers, volume)
	if tier == nil {
		return nil, ierr.WithError(ratecard.ErrRateNotFound).
			WithHintf("No %s rate effective for %s on %s", category, market, asOf.Format(types.DateLayout)).
			WithReportableDetails(map[string]any{
				"market":   market,
				"category": category,
				"volume":   volume,
			}).
			Mark(ierr.ErrNotFound)
	}
	return tier, nil
}

var (
	baseRateColumns   = []string{"market", "currency", "marketing", "utility", "authentication"}
	volumeTierColumns = []string{"market", "currency", "category", "from", "to", "rate"}
)

func (s *rateCardService) UploadBaseRates(ctx context.Context, fileContent []byte, effectiveDate time.Time) (*dto.RateCardUploadResponse, error) {
	return s.upload(ctx, fileContent, effectiveDate, baseRateColumns, func(row csvRow) ([]*ratecard.Entry, error) {
		var entries []*ratecard.Entry
		for _, category := range types.ChargeableCategories {
			value := row.Get(strings.ToLower(category.String()))
			if value == "" {
				continue
			}
			rate, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s rate %q", strings.ToLower(category.String()), value)
			}
			entries = append(entries, s.rowEntry(ctx, row, category, 0, nil, rate, effectiveDate))
		}
		if len(entries) == 0 {
			return nil, errors.New("no rates given")
		}
		return entries, nil
	})
}

func (s *rateCardService) UploadVolumeTiers(ctx context.Context, fileContent []byte, effectiveDate time.Time) (*dto.RateCardUploadResponse, error) {
	return s.upload(ctx, fileContent, effectiveDate, volumeTierColumns, func(row csvRow) ([]*ratecard.Entry, error) {
		category := types.ParseMessageCategory(row.Get("category"))
		if !category.IsChargeable() {
			return nil, fmt.Errorf("invalid category %q", row.Get("category"))
		}

		from, err := parseUint(row.Get("from"))
		if err != nil {
			return nil, fmt.Errorf("invalid from %q", row.Get("from"))
		}

		var to *uint64
		if v := row.Get("to"); v != "" {
			end, err := parseUint(v)
			if err != nil {
				return nil, fmt.Errorf("invalid to %q", v)
			}
			to = &end
		}

		rate, err := decimal.NewFromString(row.Get("rate"))
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q", row.Get("rate"))
		}
		return []*ratecard.Entry{s.rowEntry(ctx, row, category, from, to, rate, effectiveDate)}, nil
	})
}

func (s *rateCardService) rowEntry(ctx context.Context, row csvRow, category types.MessageCategory, from uint64, to *uint64, rate decimal.Decimal, effectiveDate time.Time) *ratecard.Entry {
	var country *string
	if cc := row.Get("country_code"); cc != "" {
		country = lo.ToPtr(cc)
	}
	return &ratecard.Entry{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RATE_CARD_ENTRY),
		MarketOrRegion:  row.Get("market"),
		CountryCode:     country,
		Currency:        row.Get("currency"),
		Category:        category,
		VolumeTierStart: from,
		VolumeTierEnd:   to,
		Rate:            rate,
		EffectiveDate:   effectiveDate,
		BaseModel:       types.GetDefaultBaseModel(ctx, s.Clock.Now()),
	}
}

// upload reconciles every parsed entry against the store. Row errors are
// collected and never stop the rest of the file.
func (s *rateCardService) upload(
	ctx context.Context,
	fileContent []byte,
	effectiveDate time.Time,
	required []string,
	parse func(row csvRow) ([]*ratecard.Entry, error),
) (*dto.RateCardUploadResponse, error) {
	result := &dto.RateCardUploadResponse{Errors: []string{}}
	rowErr := func(line int, err error) {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", line, rowReason(err)))
	}

	err := s.csv.ReadRows(fileContent, required, func(row csvRow, err error) {
		if err != nil {
			rowErr(row.Line, err)
			return
		}

		entries, err := parse(row)
		if err != nil {
			rowErr(row.Line, err)
			return
		}

		for _, entry := range entries {
			entry.Normalize()
			if err := entry.Validate(); err != nil {
				rowErr(row.Line, err)
				continue
			}

			action, err := s.reconcile(ctx, entry)
			if err != nil {
				rowErr(row.Line, err)
				continue
			}
			switch action {
			case ratecard.ActionCreate:
				result.Created++
			case ratecard.ActionUpdate:
				result.Updated++
			default:
				result.Skipped++
			}
		}
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("rate card upload processed",
		"effective_date", effectiveDate.Format(types.DateLayout),
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

func (s *rateCardService) reconcile(ctx context.Context, entry *ratecard.Entry) (ratecard.Action, error) {
	existing, err := s.RateCardRepo.Get(ctx, entry.Key())
	if err != nil && !ierr.IsNotFound(err) {
		return "", err
	}

	action := ratecard.Reconcile(existing, entry)
	if action == ratecard.ActionNoop {
		return action, nil
	}
	if err := s.RateCardRepo.Upsert(ctx, entry); err != nil {
		return "", err
	}
	return action, nil
}

// rowReason prefers the hint of domain errors, which is written for humans
func rowReason(err error) string {
	if hint := errors.FlattenHints(err); hint != "" {
		return hint
	}
	return err.Error()
}

// maxVolume is the largest tier bound a BIGINT column holds
var maxVolume = decimal.NewFromInt(math.MaxInt64)

func parseUint(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, errors.New("not a whole number")
	}
	if d.GreaterThan(maxVolume) {
		return 0, errors.New("out of range")
	}
	return uint64(d.IntPart()), nil
}
