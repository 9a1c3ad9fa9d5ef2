package tax

import (
	"context"
	"fmt"

	"ductclean/internal/models"
)

// FlatRater applies a single sales-tax rate expressed in basis points
// (825 = 8.25%). Fractions of a cent are truncated.
type FlatRater struct {
	rateBps int64
}

func NewFlatRater(rateBps int) (*FlatRater, error) {
	if rateBps < 0 || rateBps > 10000 {
		return nil, fmt.Errorf("tax rate out of range: %d bps", rateBps)
	}
	return &FlatRater{rateBps: int64(rateBps)}, nil
}

func (r *FlatRater) TaxFor(ctx context.Context, amount models.Cents) (models.Cents, error) {
	if amount < 0 {
		return 0, fmt.Errorf("cannot tax a negative amount: %s", amount)
	}
	return models.Cents(int64(amount) * r.rateBps / 10000), nil
}
