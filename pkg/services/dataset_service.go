package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"insightforge-api/pkg/models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Required columns of an uploaded sales dataset. Matching is
// case-insensitive; the canonical names are reported on validation failure.
var requiredColumns = []string{"Order Date", "Sales", "Profit", "Category", "Region", "Segment"}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// DatasetService parses uploaded CSV/Excel files into normalized tables.
type DatasetService struct{}

// NewDatasetService creates a new DatasetService.
func NewDatasetService() *DatasetService {
	return &DatasetService{}
}

// Load parses raw file content into a normalized dataset. It returns a
// ParseError for unreadable files and a ValidationError when required
// columns are missing; in both cases no dataset is produced.
func (ds *DatasetService) Load(fileName string, content []byte) (*models.Dataset, error) {
	var rows [][]string
	var err error

	switch {
	case strings.HasSuffix(strings.ToLower(fileName), ".xlsx"):
		rows, err = readExcelRows(content)
	case strings.HasSuffix(strings.ToLower(fileName), ".csv"):
		rows, err = readCSVRows(content)
	default:
		err = fmt.Errorf("unsupported file type, expected .csv or .xlsx")
	}
	if err != nil {
		return nil, &models.ParseError{FileName: fileName, Err: err}
	}

	if len(rows) < 2 {
		return nil, &models.ParseError{FileName: fileName, Err: fmt.Errorf("file needs a header row and at least one data row")}
	}

	header := rows[0]
	dataRows := rows[1:]

	colIdx := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, col := range requiredColumns {
		idx := findIndex(header, col)
		if idx == -1 {
			missing = append(missing, col)
			continue
		}
		colIdx[col] = idx
	}
	if len(missing) > 0 {
		log.Printf("upload %s rejected, missing columns: %v (header: %v)", fileName, missing, header)
		return nil, &models.ValidationError{Missing: missing}
	}

	quantityIdx := findIndex(header, "Quantity")
	subCategoryIdx := findIndex(header, "Sub-Category", "SubCategory", "Sub Category")

	dateIdx := colIdx["Order Date"]
	salesIdx := colIdx["Sales"]
	profitIdx := colIdx["Profit"]
	categoryIdx := colIdx["Category"]
	regionIdx := colIdx["Region"]
	segmentIdx := colIdx["Segment"]

	dataset := &models.Dataset{
		FileName:       fileName,
		HasSubCategory: subCategoryIdx != -1,
	}

	regionSet := make(map[string]struct{})
	categorySet := make(map[string]struct{})
	dropped := 0

	for _, row := range dataRows {
		get := func(idx int) string {
			if idx >= 0 && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}

		orderDate, ok := parseDate(get(dateIdx))
		if !ok {
			dropped++
			continue
		}

		sales, err := strconv.ParseFloat(get(salesIdx), 64)
		if err != nil {
			dropped++
			continue
		}
		// negative sales are data-entry noise, clamp to zero
		if sales < 0 {
			sales = 0
		}

		profit := 0.0
		if profitStr := get(profitIdx); profitStr != "" {
			profit, err = strconv.ParseFloat(profitStr, 64)
			if err != nil {
				dropped++
				continue
			}
		}

		record := models.SalesRecord{
			OrderDate: orderDate,
			Sales:     sales,
			Profit:    profit,
			Category:  get(categoryIdx),
			Region:    get(regionIdx),
			Segment:   get(segmentIdx),
		}
		if subCategoryIdx != -1 {
			record.SubCategory = get(subCategoryIdx)
		}

		record.Quantity = deriveQuantity(sales, profit)
		if quantityIdx != -1 {
			if q, err := strconv.ParseFloat(get(quantityIdx), 64); err == nil {
				record.Quantity = q
			}
		}

		if dataset.Rows == nil || orderDate.Before(dataset.MinDate) {
			dataset.MinDate = orderDate
		}
		if dataset.Rows == nil || orderDate.After(dataset.MaxDate) {
			dataset.MaxDate = orderDate
		}

		regionSet[record.Region] = struct{}{}
		categorySet[record.Category] = struct{}{}
		dataset.Rows = append(dataset.Rows, record)
	}

	if len(dataset.Rows) == 0 {
		return nil, &models.ParseError{FileName: fileName, Err: fmt.Errorf("no valid data rows after cleaning (%d dropped)", dropped)}
	}

	dataset.Regions = sortedKeys(regionSet)
	dataset.Categories = sortedKeys(categorySet)

	log.Printf("loaded %s: %d rows (%d dropped), range %s to %s",
		fileName, len(dataset.Rows), dropped,
		dataset.MinDate.Format("2006-01-02"), dataset.MaxDate.Format("2006-01-02"))

	return dataset, nil
}

// readCSVRows decodes CSV bytes as UTF-8 and falls back to a latin-1 decode
// when the content is not valid UTF-8, so a bad byte never fails the upload.
func readCSVRows(content []byte) ([][]string, error) {
	if !utf8.Valid(content) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
		if err == nil {
			content = decoded
		}
	}
	// strip a UTF-8 BOM if present
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

// readExcelRows reads the first sheet of an .xlsx file.
func readExcelRows(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel sheet: %w", err)
	}
	return rows, nil
}

// deriveQuantity approximates a unit count when the Quantity column is
// absent: round(sales / profit), with zero profit treated as 1. This is the
// original dashboard's heuristic, kept for compatibility; it is not a real
// unit count.
func deriveQuantity(sales, profit float64) float64 {
	denom := profit
	if denom == 0 {
		denom = 1
	}
	return math.Round(sales / denom)
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// findIndex finds the index of the first candidate in a slice
func findIndex(slice []string, candidates ...string) int {
	for _, candidate := range candidates {
		for i, item := range slice {
			if strings.EqualFold(strings.TrimSpace(item), candidate) {
				return i
			}
		}
	}
	return -1
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
