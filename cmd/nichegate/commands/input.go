package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wonny/nichegate/internal/contracts"
	"github.com/wonny/nichegate/internal/history"
)

// marketFile is the JSON form of a market: raw competitor rows plus
// optional precomputed analyses keyed by ASIN
type marketFile struct {
	Competitors []map[string]any             `json:"competitors"`
	Analyses    contracts.HistoricalAnalyses `json:"analyses"`
}

// seriesFile holds raw history for one competitor
type seriesFile struct {
	Price []contracts.SeriesPoint `json:"price"`
	BSR   []contracts.SeriesPoint `json:"bsr"`
}

// readMarket loads competitor rows from .json or .csv.
// JSON may be a marketFile object or a bare array of rows.
func readMarket(path string) (*marketFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err := parseCSVRows(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &marketFile{Competitors: rows}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m marketFile
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = dec.Decode(&m.Competitors)
	} else {
		err = dec.Decode(&m)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// parseCSVRows maps each record to its header keys. Empty cells are left out.
func parseCSVRows(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, key := range header {
			if i < len(rec) && strings.TrimSpace(rec[i]) != "" {
				row[key] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readSeries loads a map of ASIN → raw price/BSR series
func readSeries(path string) (map[string]seriesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var series map[string]seriesFile
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return series, nil
}

// analyzeSeries runs the analyzer over every ASIN in name order
func analyzeSeries(analyzer *history.Analyzer, series map[string]seriesFile) []contracts.HistoricalAnalysis {
	asins := make([]string, 0, len(series))
	for asin := range series {
		asins = append(asins, asin)
	}
	sort.Strings(asins)

	out := make([]contracts.HistoricalAnalysis, 0, len(asins))
	for _, asin := range asins {
		s := series[asin]
		out = append(out, analyzer.Analyze(asin,
			contracts.HistoricalSeries{ASIN: asin, Metric: contracts.MetricPrice, Points: s.Price},
			contracts.HistoricalSeries{ASIN: asin, Metric: contracts.MetricBSR, Points: s.BSR},
		))
	}
	return out
}

// normalizeRows converts raw rows and collects issues per row label
func normalizeRows(rows []map[string]any) ([]contracts.CompetitorRecord, map[string][]string) {
	records := make([]contracts.CompetitorRecord, 0, len(rows))
	issues := make(map[string][]string)
	for i, raw := range rows {
		rec, rowIssues := contracts.NormalizeRaw(raw)
		if len(rowIssues) > 0 {
			label := rec.ASIN
			if label == "" {
				label = fmt.Sprintf("row %d", i+1)
			}
			issues[label] = rowIssues
		}
		records = append(records, rec)
	}
	return records, issues
}
