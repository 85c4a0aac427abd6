package services

import (
	"context"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/exp/slices"

	"influencer-feedback-server/storage"
)

// ProfileSummary is the per-profile dashboard aggregate. It is recomputed
// on every render and never stored.
type ProfileSummary struct {
	Perfil       string  `json:"perfil"`
	Sentiment    string  `json:"sentiment"`
	AvgNota      float64 `json:"avg_nota"`
	TotalEntries int     `json:"total_entries"`
}

// RankingRow is one line of the top-influencers table.
type RankingRow struct {
	Perfil       string  `json:"perfil"`
	AvgNota      float64 `json:"avg_nota"`
	TotalEntries int     `json:"total_entries"`
}

// ClassifiedFeedback is one row of the per-profile feedback listing.
type ClassifiedFeedback struct {
	Perfil      string     `json:"perfil"`
	Experiencia string     `json:"experiencia"`
	Nota        *float64   `json:"nota"`
	Data        *time.Time `json:"data"`
	Sentiment   string     `json:"sentiment"`
	Language    string     `json:"language"`
}

// SummarizeProfile computes the three dashboard panels for one eligible
// profile: majority sentiment bucket, mean nota and entry count. The
// second return is false when the profile is unknown or has a single
// entry and therefore is not selectable.
func SummarizeProfile(ctx context.Context, perfil string) (ProfileSummary, bool) {
	ds := storage.Dataset()
	if !slices.Contains(ds.EligibleProfiles(), perfil) {
		return ProfileSummary{}, false
	}
	idx, rows := ds.ProfileRows(perfil)

	counts := map[string]int{}
	var order []string
	for i, rec := range rows {
		bucket := CachedSentiment(ctx, SentimentKey(perfil, idx[i]), rec.Text())
		if counts[bucket] == 0 {
			order = append(order, bucket)
		}
		counts[bucket]++
	}

	// mode of the buckets; ties go to the bucket seen first
	majority := ""
	for _, bucket := range order {
		if majority == "" || counts[bucket] > counts[majority] {
			majority = bucket
		}
	}

	var sum float64
	var valid int
	for _, rec := range rows {
		if rec.NotaValid {
			sum += rec.Nota
			valid++
		}
	}
	avg := 0.0
	if valid > 0 {
		avg = sum / float64(valid)
	}

	return ProfileSummary{
		Perfil:       perfil,
		Sentiment:    majority,
		AvgNota:      avg,
		TotalEntries: len(rows),
	}, true
}

// ProfileFeedback returns the classified rows for one eligible profile,
// with the detected language of each text.
func ProfileFeedback(ctx context.Context, perfil string) ([]ClassifiedFeedback, bool) {
	ds := storage.Dataset()
	if !slices.Contains(ds.EligibleProfiles(), perfil) {
		return nil, false
	}
	idx, rows := ds.ProfileRows(perfil)

	out := make([]ClassifiedFeedback, 0, len(rows))
	for i, rec := range rows {
		text := rec.Text()
		cf := ClassifiedFeedback{
			Perfil:      rec.Perfil,
			Experiencia: text,
			Sentiment:   CachedSentiment(ctx, SentimentKey(perfil, idx[i]), text),
			Language:    whatlanggo.LangToString(whatlanggo.Detect(text).Lang),
		}
		if rec.NotaValid {
			nota := rec.Nota
			cf.Nota = &nota
		}
		if rec.DataValid {
			data := rec.Data
			cf.Data = &data
		}
		out = append(out, cf)
	}
	return out, true
}

// Ranking aggregates every eligible profile into mean nota and entry
// count, sorted by mean descending. Equal means keep first-seen order.
func Ranking() []RankingRow {
	ds := storage.Dataset()

	var table []RankingRow
	for _, perfil := range ds.EligibleProfiles() {
		_, rows := ds.ProfileRows(perfil)
		var sum float64
		var valid int
		for _, rec := range rows {
			if rec.NotaValid {
				sum += rec.Nota
				valid++
			}
		}
		avg := 0.0
		if valid > 0 {
			avg = sum / float64(valid)
		}
		table = append(table, RankingRow{Perfil: perfil, AvgNota: avg, TotalEntries: len(rows)})
	}

	slices.SortStableFunc(table, func(a, b RankingRow) int {
		switch {
		case a.AvgNota > b.AvgNota:
			return -1
		case a.AvgNota < b.AvgNota:
			return 1
		default:
			return 0
		}
	})
	return table
}
