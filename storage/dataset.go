package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"influencer-feedback-server/models"
)

// FeedbackDataset holds the feedback table for the lifetime of the process.
// Records are read-only after InitializeDataset returns.
type FeedbackDataset struct {
	Records []models.FeedbackRecord
	loadErr string
}

var (
	dataset     *FeedbackDataset
	datasetOnce sync.Once
)

const defaultDriveBaseURL = "https://drive.google.com/uc?id="

var requiredColumns = []string{"perfil", "experiencia", "nota", "data"}

// date layouts seen in the exports; the first match wins
var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

var datasetHTTPClient = &http.Client{Timeout: 60 * time.Second}

// InitializeDataset downloads and parses the feedback CSV exactly once per
// process. Any failure leaves an empty dataset with a user-visible error
// message instead of crashing the server.
func InitializeDataset() *FeedbackDataset {
	datasetOnce.Do(func() {
		ds, err := fetchDataset()
		if err != nil {
			log.Println("❌ Error loading data:", err)
			dataset = &FeedbackDataset{loadErr: fmt.Sprintf("Error loading data: %v", err)}
			return
		}
		log.Printf("🔧 Dataset loaded with %d feedback records", len(ds.Records))
		dataset = ds
	})
	return dataset
}

// Dataset returns the session-cached feedback table, loading it on first use.
func Dataset() *FeedbackDataset {
	return InitializeDataset()
}

// ResetDatasetForTest clears the session cache so tests can load fixtures.
func ResetDatasetForTest() {
	dataset = nil
	datasetOnce = sync.Once{}
}

// SetDatasetForTest installs fixture records, bypassing the fetch.
func SetDatasetForTest(records []models.FeedbackRecord) {
	datasetOnce.Do(func() {})
	dataset = &FeedbackDataset{Records: records}
}

func fetchDataset() (*FeedbackDataset, error) {
	fileID := os.Getenv("GOOGLE_DRIVE_FILE_ID")
	if fileID == "" {
		return nil, fmt.Errorf("GOOGLE_DRIVE_FILE_ID environment variable is not set")
	}

	baseURL := os.Getenv("DRIVE_BASE_URL")
	if baseURL == "" {
		baseURL = defaultDriveBaseURL
	}

	resp, err := datasetHTTPClient.Get(baseURL + fileID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseCSV(string(body))
}

func parseCSV(data string) (*FeedbackDataset, error) {
	reader := csv.NewReader(strings.NewReader(data))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV export is empty")
	}

	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV export is missing column %q", name)
		}
	}

	ds := &FeedbackDataset{}
	for _, row := range rows[1:] {
		rec := models.FeedbackRecord{
			Perfil:      strings.TrimSpace(row[cols["perfil"]]),
			Experiencia: row[cols["experiencia"]],
		}
		if nota, err := strconv.ParseFloat(strings.TrimSpace(row[cols["nota"]]), 64); err == nil {
			rec.Nota = nota
			rec.NotaValid = true
		}
		rec.Data, rec.DataValid = parseDate(row[cols["data"]])
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func parseDate(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Empty reports whether the dataset has no usable records.
func (ds *FeedbackDataset) Empty() bool {
	return ds == nil || len(ds.Records) == 0
}

// LoadErr returns the user-visible load error, or "" when the load succeeded.
func (ds *FeedbackDataset) LoadErr() string {
	if ds == nil {
		return ""
	}
	return ds.loadErr
}

// EligibleProfiles returns, in first-seen order, the profiles with more
// than one feedback entry. Only these appear in the selector and ranking.
func (ds *FeedbackDataset) EligibleProfiles() []string {
	if ds.Empty() {
		return nil
	}
	counts := map[string]int{}
	var order []string
	for _, rec := range ds.Records {
		if counts[rec.Perfil] == 0 {
			order = append(order, rec.Perfil)
		}
		counts[rec.Perfil]++
	}
	var eligible []string
	for _, perfil := range order {
		if counts[perfil] > 1 {
			eligible = append(eligible, perfil)
		}
	}
	return eligible
}

// ProfileRows returns the indices and records for one profile, preserving
// dataset order. Indices are stable for the process lifetime and key the
// sentiment memo cache.
func (ds *FeedbackDataset) ProfileRows(perfil string) ([]int, []models.FeedbackRecord) {
	if ds.Empty() {
		return nil, nil
	}
	var idx []int
	var recs []models.FeedbackRecord
	for i, rec := range ds.Records {
		if rec.Perfil == perfil {
			idx = append(idx, i)
			recs = append(recs, rec)
		}
	}
	return idx, recs
}
