package services

import (
	"context"
	"testing"
	"time"

	"influencer-feedback-server/models"
	"influencer-feedback-server/storage"
)

func fixtureRecords() []models.FeedbackRecord {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []models.FeedbackRecord{
		{Perfil: "A", Experiencia: "péssimo", Nota: 1, NotaValid: true, Data: day(1), DataValid: true},
		{Perfil: "A", Experiencia: "mediano", Nota: 3, NotaValid: true, Data: day(2), DataValid: true},
		{Perfil: "A", Experiencia: "excelente", Nota: 5, NotaValid: true, Data: day(3), DataValid: true},
		{Perfil: "B", Experiencia: "bom", Nota: 4, NotaValid: true, Data: day(4), DataValid: true},
		{Perfil: "B", Experiencia: "", Nota: 4, NotaValid: true, Data: day(5), DataValid: true},
		{Perfil: "C", Experiencia: "único feedback", Nota: 5, NotaValid: true, Data: day(6), DataValid: true},
	}
}

func setupReportTest(t *testing.T) *fakeClassifier {
	t.Helper()
	fake := &fakeClassifier{labels: map[string]string{
		"péssimo":    "1 star",
		"mediano":    "3 stars",
		"excelente":  "5 stars",
		"bom":        "4 stars",
		"No content": "3 stars",
	}}
	SetClassifierForTest(fake)
	ResetSentimentCacheForTest()
	storage.SetDatasetForTest(fixtureRecords())
	t.Cleanup(func() {
		ResetSentimentCacheForTest()
		storage.ResetDatasetForTest()
	})
	return fake
}

func TestSummarizeProfileAverageAndCount(t *testing.T) {
	setupReportTest(t)

	summary, ok := SummarizeProfile(context.Background(), "A")
	if !ok {
		t.Fatal("profile A should be summarizable")
	}
	if summary.AvgNota != 3.0 {
		t.Errorf("expected mean 3.0 for notas [1 3 5], got %v", summary.AvgNota)
	}
	if summary.TotalEntries != 3 {
		t.Errorf("expected 3 entries, got %d", summary.TotalEntries)
	}
}

func TestSummarizeProfileMajorityTieBreak(t *testing.T) {
	setupReportTest(t)

	// A maps to one BAD, one NEUTRAL, one GOOD; the three-way tie goes to
	// the bucket encountered first in row order.
	summary, _ := SummarizeProfile(context.Background(), "A")
	if summary.Sentiment != SentimentBad {
		t.Errorf("expected first-encountered bucket %q on tie, got %q", SentimentBad, summary.Sentiment)
	}
}

func TestSummarizeProfileIneligible(t *testing.T) {
	setupReportTest(t)

	if _, ok := SummarizeProfile(context.Background(), "C"); ok {
		t.Error("single-entry profile must not be summarizable")
	}
	if _, ok := SummarizeProfile(context.Background(), "nobody"); ok {
		t.Error("unknown profile must not be summarizable")
	}
}

func TestSummarizeProfileFillsPlaceholder(t *testing.T) {
	fake := setupReportTest(t)

	if _, ok := SummarizeProfile(context.Background(), "B"); !ok {
		t.Fatal("profile B should be summarizable")
	}
	// The empty experiencia row must reach the classifier as the
	// placeholder, never as an empty string.
	if _, ok := fake.labels["No content"]; !ok {
		t.Fatal("fixture must map the placeholder")
	}
	rows, _ := ProfileFeedback(context.Background(), "B")
	for _, row := range rows {
		if row.Experiencia == "" {
			t.Error("empty experiencia must be replaced with the placeholder")
		}
	}
}

func TestProfileFeedbackClassifiesRows(t *testing.T) {
	setupReportTest(t)

	rows, ok := ProfileFeedback(context.Background(), "A")
	if !ok || len(rows) != 3 {
		t.Fatalf("expected 3 classified rows for A, got %d (ok=%v)", len(rows), ok)
	}
	want := []string{SentimentBad, SentimentNeutral, SentimentGood}
	for i, row := range rows {
		if row.Sentiment != want[i] {
			t.Errorf("row %d: expected %q, got %q", i, want[i], row.Sentiment)
		}
		if row.Language == "" {
			t.Errorf("row %d: expected a detected language", i)
		}
	}
}

func TestRankingSortedAndEligibleOnly(t *testing.T) {
	setupReportTest(t)

	table := Ranking()
	if len(table) != 2 {
		t.Fatalf("expected 2 eligible profiles, got %d", len(table))
	}
	for _, row := range table {
		if row.Perfil == "C" {
			t.Error("single-entry profile must not appear in the ranking")
		}
	}
	for i := 1; i < len(table); i++ {
		if table[i-1].AvgNota < table[i].AvgNota {
			t.Errorf("ranking not sorted descending at index %d: %v < %v", i, table[i-1].AvgNota, table[i].AvgNota)
		}
	}
	// B has mean 4.0, A has mean 3.0
	if table[0].Perfil != "B" || table[1].Perfil != "A" {
		t.Errorf("expected order [B A], got [%s %s]", table[0].Perfil, table[1].Perfil)
	}
}

func TestRankingStableForEqualMeans(t *testing.T) {
	SetClassifierForTest(&fakeClassifier{})
	ResetSentimentCacheForTest()
	// P and Q share a mean of 4.0; R is strictly above both
	storage.SetDatasetForTest([]models.FeedbackRecord{
		{Perfil: "P", Experiencia: "a", Nota: 4, NotaValid: true},
		{Perfil: "P", Experiencia: "b", Nota: 4, NotaValid: true},
		{Perfil: "Q", Experiencia: "c", Nota: 5, NotaValid: true},
		{Perfil: "Q", Experiencia: "d", Nota: 3, NotaValid: true},
		{Perfil: "R", Experiencia: "e", Nota: 5, NotaValid: true},
		{Perfil: "R", Experiencia: "f", Nota: 5, NotaValid: true},
	})
	t.Cleanup(func() {
		ResetSentimentCacheForTest()
		storage.ResetDatasetForTest()
	})

	table := Ranking()
	if len(table) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table))
	}
	if table[0].Perfil != "R" {
		t.Errorf("expected highest mean first, got %s", table[0].Perfil)
	}
	// equal means keep first-seen dataset order
	if table[1].Perfil != "P" || table[2].Perfil != "Q" {
		t.Errorf("expected stable order [P Q] for equal means, got [%s %s]", table[1].Perfil, table[2].Perfil)
	}
}

func TestRankingIgnoresInvalidNotas(t *testing.T) {
	SetClassifierForTest(&fakeClassifier{})
	ResetSentimentCacheForTest()
	storage.SetDatasetForTest([]models.FeedbackRecord{
		{Perfil: "X", Experiencia: "a", Nota: 2, NotaValid: true},
		{Perfil: "X", Experiencia: "b", NotaValid: false},
		{Perfil: "X", Experiencia: "c", Nota: 4, NotaValid: true},
	})
	t.Cleanup(func() {
		ResetSentimentCacheForTest()
		storage.ResetDatasetForTest()
	})

	table := Ranking()
	if len(table) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table))
	}
	if table[0].AvgNota != 3.0 {
		t.Errorf("mean must ignore invalid notas: expected 3.0, got %v", table[0].AvgNota)
	}
	if table[0].TotalEntries != 3 {
		t.Errorf("entry count keeps all rows: expected 3, got %d", table[0].TotalEntries)
	}
}
