package processors

import "github.com/username/tradejournal/backend/src/models"

// ReconcileResult is the outcome of filtering one batch against stored trades.
type ReconcileResult struct {
	Accepted []models.NormalizedTrade
	Skipped  int
}

// DuplicateReconciler drops trades whose identity is already stored or was
// already accepted earlier in the same batch.
type DuplicateReconciler struct{}

func NewDuplicateReconciler() *DuplicateReconciler { return &DuplicateReconciler{} }

// Reconcile walks candidates in input order. A trade is skipped when any of its
// external-reference keys is in existing or belongs to a trade accepted before it.
// existing is not modified.
func (r *DuplicateReconciler) Reconcile(candidates []models.NormalizedTrade, existing models.KeySet) ReconcileResult {
	seen := models.NewKeySet()
	result := ReconcileResult{Accepted: make([]models.NormalizedTrade, 0, len(candidates))}

	for _, trade := range candidates {
		keys := trade.ExternalRef.Keys()
		duplicate := false
		for _, k := range keys {
			if existing.Has(k) || seen.Has(k) {
				duplicate = true
				break
			}
		}
		if duplicate {
			result.Skipped++
			continue
		}
		for _, k := range keys {
			seen.Add(k)
		}
		result.Accepted = append(result.Accepted, trade)
	}
	return result
}
