package billing

import (
	"strings"

	"github.com/ManuelReschke/ExamFox/app/models"
)

// PlanOffer is a paid plan as sold through checkout.
type PlanOffer struct {
	Code        string
	Name        string
	AmountCents int64
}

// Amount returns the price in currency units as the processor expects it.
func (p PlanOffer) Amount() float64 {
	return float64(p.AmountCents) / 100
}

var offers = map[string]PlanOffer{
	models.PlanPro: {
		Code:        models.PlanPro,
		Name:        "Plano Pro",
		AmountCents: 2990,
	},
	models.PlanInstitutional: {
		Code:        models.PlanInstitutional,
		Name:        "Plano Institucional",
		AmountCents: 9990,
	},
}

func normalizePlan(plan string) string {
	return strings.ToLower(strings.TrimSpace(plan))
}

// LookupPlan resolves a checkout plan code.
func LookupPlan(plan string) (PlanOffer, error) {
	offer, ok := offers[normalizePlan(plan)]
	if !ok {
		return PlanOffer{}, ErrUnknownPlan
	}
	return offer, nil
}
