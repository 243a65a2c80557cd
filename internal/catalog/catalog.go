package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Meeting is one row of the session index: which parliamentary meeting it is,
// when it took place and where its recording can be fetched.
type Meeting struct {
	Number   int    `json:"number"`
	Date     string `json:"date,omitempty"`
	VideoURL string `json:"video_url"`
}

// VideoID is the identifier used across all pipeline artifacts for this
// meeting's recording: the URL's base name with the meeting number appended.
func (m Meeting) VideoID() string {
	base := m.VideoURL
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	return fmt.Sprintf("%s-althingi-%d", base, m.Number)
}

// Load reads the meetings index workbook, auto-detecting columns by header
// heuristics. Rows without a plausible video URL are skipped quietly.
func Load(path string) ([]Meeting, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("catalog has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read catalog rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("catalog has no data rows")
	}

	header := rows[0]
	numberIdx := -1
	dateIdx := -1
	urlIdx := -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case urlIdx == -1 && (strings.Contains(l, "url") || strings.Contains(l, "video") || strings.Contains(l, "link")):
			urlIdx = i
		case numberIdx == -1 && (strings.Contains(l, "fund") || strings.Contains(l, "meeting") || strings.Contains(l, "number")):
			numberIdx = i
		case dateIdx == -1 && (strings.Contains(l, "date") || strings.Contains(l, "dagur")):
			dateIdx = i
		}
	}
	if urlIdx == -1 {
		return nil, fmt.Errorf("catalog: no video URL column found")
	}

	var out []Meeting
	for i, r := range rows {
		if i == 0 {
			continue
		}
		var m Meeting
		if numberIdx >= 0 && numberIdx < len(r) {
			m.Number, _ = strconv.Atoi(strings.TrimSpace(r[numberIdx]))
		}
		if dateIdx >= 0 && dateIdx < len(r) {
			m.Date = strings.TrimSpace(r[dateIdx])
		}
		if urlIdx < len(r) {
			m.VideoURL = strings.TrimSpace(r[urlIdx])
		}
		l := strings.ToLower(m.VideoURL)
		if !strings.HasPrefix(l, "http://") && !strings.HasPrefix(l, "https://") {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
