package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Sentiment buckets shown in the dashboard. The strings are part of the
// product surface and must not change.
const (
	SentimentBad     = "🔴 RUIM"
	SentimentNeutral = "🟡 NEUTRO"
	SentimentGood    = "🟢 BOM"

	// SentimentFallback is returned when the model call fails. It is not
	// the same string as SentimentNeutral: the product has always emitted
	// two distinct neutral-ish values here and downstream counts rely on
	// telling them apart.
	SentimentFallback = "NEUTRAL"
)

// SentimentClassifier produces the raw star label ("1 star".."5 stars")
// of the pretrained model for one piece of text.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

var (
	classifier     SentimentClassifier
	classifierOnce sync.Once
)

// InitializeClassifier builds the process-wide classifier once, picking
// the provider from SENTIMENT_PROVIDER (huggingface by default).
func InitializeClassifier() SentimentClassifier {
	classifierOnce.Do(func() {
		if os.Getenv("SENTIMENT_PROVIDER") == "openai" {
			classifier = NewOpenAIClassifier()
			log.Println("🔧 Sentiment classifier initialized (provider: openai)")
			return
		}
		classifier = NewHuggingFaceClassifier()
		log.Println("🔧 Sentiment classifier initialized (provider: huggingface)")
	})
	return classifier
}

// SetClassifierForTest replaces the singleton so tests can use fakes.
func SetClassifierForTest(c SentimentClassifier) {
	classifierOnce.Do(func() {})
	classifier = c
}

// ResetClassifierForTest clears the singleton so tests can exercise
// provider selection.
func ResetClassifierForTest() {
	classifier = nil
	classifierOnce = sync.Once{}
}

// MapStarLabel maps a 5-class star label to a sentiment bucket. Labels
// above 3 stars (and anything unrecognized) land in the GOOD branch.
func MapStarLabel(label string) string {
	if strings.Contains(label, "1 star") || strings.Contains(label, "2 stars") {
		return SentimentBad
	}
	if strings.Contains(label, "3 stars") {
		return SentimentNeutral
	}
	return SentimentGood
}

// AnalyzeSentiment classifies text and maps the star label to a bucket.
// A classifier failure is warned about and degraded to the fallback value;
// it never aborts the surrounding render.
func AnalyzeSentiment(ctx context.Context, text string) string {
	label, err := InitializeClassifier().Classify(ctx, text)
	if err != nil {
		log.Printf("⚠️  Error analyzing sentiment for text: %s -> %v", text, err)
		return SentimentFallback
	}
	return MapStarLabel(label)
}

const defaultModelURL = "https://api-inference.huggingface.co/models/nlptown/bert-base-multilingual-uncased-sentiment"

// HuggingFaceClassifier calls the hosted inference endpoint of the
// multilingual star-rating model.
type HuggingFaceClassifier struct {
	URL    string
	Token  string
	Client *http.Client

	rateLimitWaits   []time.Duration
	serverErrorWaits []time.Duration
}

func NewHuggingFaceClassifier() *HuggingFaceClassifier {
	url := os.Getenv("SENTIMENT_MODEL_URL")
	if url == "" {
		url = defaultModelURL
	}
	return &HuggingFaceClassifier{
		URL:              url,
		Token:            os.Getenv("HF_API_TOKEN"),
		Client:           &http.Client{Timeout: 60 * time.Second},
		rateLimitWaits:   []time.Duration{5 * time.Second, 15 * time.Second, 30 * time.Second},
		serverErrorWaits: []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second},
	}
}

type starScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *HuggingFaceClassifier) Classify(ctx context.Context, text string) (string, error) {
	const maxRetries = 3

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		label, status, err := c.classifyOnce(ctx, text)
		if err == nil {
			return label, nil
		}
		lastErr = err
		// transport failures (status 0) are not retried: the render path
		// degrades to the fallback bucket and the next render tries again
		if status == http.StatusTooManyRequests {
			if attempt < maxRetries-1 {
				if err := sleepCtx(ctx, c.rateLimitWaits[attempt]); err != nil {
					return "", err
				}
				continue
			}
		} else if status >= 500 {
			// 503 also covers the endpoint still loading the model
			if attempt < maxRetries-1 {
				if err := sleepCtx(ctx, c.serverErrorWaits[attempt]); err != nil {
					return "", err
				}
				continue
			}
		}
		return "", lastErr
	}
	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *HuggingFaceClassifier) classifyOnce(ctx context.Context, text string) (string, int, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"inputs":  text,
		"options": map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, fmt.Errorf("model endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	label, err := topStarLabel(body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return label, resp.StatusCode, nil
}

// topStarLabel extracts the highest-scoring label. The inference API
// returns [[{label,score},...]] for single inputs, but some deployments
// flatten the outer array.
func topStarLabel(body []byte) (string, error) {
	var nested [][]starScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return bestOf(nested[0]), nil
	}
	var flat []starScore
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return bestOf(flat), nil
	}
	return "", fmt.Errorf("unexpected model response: %s", strings.TrimSpace(string(body)))
}

func bestOf(scores []starScore) string {
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best.Label
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
