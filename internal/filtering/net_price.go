package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/unifit/internal/catalog"
)

type netPriceFilter struct {
	toggle
	bracket  catalog.IncomeBracket
	maxPrice float64
}

// NewNetPrice creates a filter that drops institutions whose net price for
// the family's income bracket exceeds the ceiling. Institutions without any
// figure for the bracket are kept.
func NewNetPrice() Filter {
	return &netPriceFilter{}
}

func (f *netPriceFilter) Name() string { return "net_price" }

func (f *netPriceFilter) Validate(cfg *Config) error {
	if cfg == nil || cfg.Profile == nil {
		return errNoProfile
	}
	if !cfg.Profile.IncomeBracket.Valid() {
		return fmt.Errorf("unknown income bracket %d", int(cfg.Profile.IncomeBracket))
	}
	f.bracket = cfg.Profile.IncomeBracket
	f.maxPrice = cfg.Profile.MaxNetPrice
	return nil
}

func (f *netPriceFilter) Apply(_ context.Context, deps Deps, in []*catalog.Institution) ([]*catalog.Institution, Step, error) {
	out, dropped, step := keep(in, func(inst *catalog.Institution) bool {
		if inst.NetPriceMissing(f.bracket) {
			return true
		}
		price, ok := inst.SelectedNetPrice(f.bracket)
		return ok && price <= f.maxPrice
	})
	logDropped(deps, "excluding institutions above net price ceiling", dropped, step.Left,
		zap.String("bracket", f.bracket.Prefix()),
		zap.Float64("max_net_price", f.maxPrice),
	)
	return out, step, nil
}

func (f *netPriceFilter) Status() Status {
	return f.status(f.Name(), map[string]string{
		"bracket":       f.bracket.Prefix(),
		"max_net_price": strconv.FormatFloat(f.maxPrice, 'f', -1, 64),
	})
}
