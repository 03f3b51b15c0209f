package game

import (
	"math/rand"

	"geoquiz/internal/domain"
)

// SelectQuestions builds one session's question list from the bank: at most
// one question per country, at most regionQuota from the East Asia subset,
// size questions total, and a final shuffle so regions are not grouped. A
// short bank yields a shorter list; the regional cap is never exceeded to
// fill slots. All shuffles use rnd so a seeded source yields a reproducible
// list.
func SelectQuestions(bank []domain.Question, size, regionQuota int, rnd *rand.Rand) []domain.Question {
	pool := dedupeByCountry(bank, rnd)

	var regional, rest []domain.Question
	for _, q := range pool {
		if q.Region == RegionEastAsia {
			regional = append(regional, q)
		} else {
			rest = append(rest, q)
		}
	}
	shuffle(regional, rnd)
	shuffle(rest, rnd)

	picked := make([]domain.Question, 0, size)
	for _, q := range regional {
		if len(picked) == regionQuota || len(picked) == size {
			break
		}
		picked = append(picked, q)
	}
	for _, q := range rest {
		if len(picked) == size {
			break
		}
		picked = append(picked, q)
	}

	shuffle(picked, rnd)
	return picked
}

// dedupeByCountry keeps one question per country, chosen uniformly among
// duplicates by shuffling before the scan.
func dedupeByCountry(bank []domain.Question, rnd *rand.Rand) []domain.Question {
	shuffled := make([]domain.Question, len(bank))
	copy(shuffled, bank)
	shuffle(shuffled, rnd)

	seen := make(map[string]struct{}, len(shuffled))
	out := shuffled[:0]
	for _, q := range shuffled {
		if _, ok := seen[q.Country]; ok {
			continue
		}
		seen[q.Country] = struct{}{}
		out = append(out, q)
	}
	return out
}

func shuffle(qs []domain.Question, rnd *rand.Rand) {
	rnd.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}
