package dedup

import (
	"sort"
	"time"

	"pokerlog/internal/models"
)

// FindDuplicates identifies session records that share a composite key of
// (buy-in, cash-out, start rounded to the minute) and returns every group
// member except the earliest-created one. The keeper is never returned.
//
// Known limitation: two legitimately distinct short sessions at identical
// stakes on the same minute collide on this key; that risk is accepted
// rather than widening the key.
func FindDuplicates(records []models.SessionRecord) []models.SessionRecord {
	groups := make(map[string][]models.SessionRecord)
	order := make([]string, 0)
	for _, rec := range records {
		k := key(rec)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	var toDelete []models.SessionRecord
	for _, k := range order {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		// Stable: equal creation instants keep input order, so the
		// result is deterministic for a given input ordering.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		toDelete = append(toDelete, group[1:]...)
	}
	return toDelete
}

func key(rec models.SessionRecord) string {
	// StringFixed normalizes exponent differences ("500" vs "500.00")
	// across vendor formats.
	return rec.BuyIn.StringFixed(2) + "|" +
		rec.CashOut.StringFixed(2) + "|" +
		rec.StartAt.UTC().Truncate(time.Minute).Format(time.RFC3339)
}
