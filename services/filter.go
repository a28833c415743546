package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"scholarxp-api/models"

	"gorm.io/gorm"
)

// SubmissionFilter is one validated predicate of the submission listing
// query. The vocabulary is fixed (status, platform, week, date range, XP
// range, search) and every filter checks its own input before it touches
// the query, so no caller-supplied field name ever reaches SQL.
type SubmissionFilter interface {
	Validate() error
	Apply(q *gorm.DB) *gorm.DB
}

var validSubmissionStatuses = map[string]bool{
	models.SubmissionStatusPending:         true,
	models.SubmissionStatusAiReviewed:      true,
	models.SubmissionStatusUnderPeerReview: true,
	models.SubmissionStatusFinalized:       true,
	models.SubmissionStatusRejected:        true,
	models.SubmissionStatusFlagged:         true,
}

type StatusFilter struct {
	Statuses []string
}

func (f StatusFilter) Validate() error {
	if len(f.Statuses) == 0 {
		return fmt.Errorf("status filter requires at least one status")
	}
	for _, s := range f.Statuses {
		if !validSubmissionStatuses[s] {
			return fmt.Errorf("unknown submission status %q", s)
		}
	}
	return nil
}

func (f StatusFilter) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("submissions.status IN ?", f.Statuses)
}

type PlatformFilter struct {
	Platform string
}

func (f PlatformFilter) Validate() error {
	if strings.TrimSpace(f.Platform) == "" {
		return fmt.Errorf("platform filter requires a value")
	}
	return nil
}

func (f PlatformFilter) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("submissions.platform = ?", f.Platform)
}

type WeekFilter struct {
	WeekNumber int
}

func (f WeekFilter) Validate() error {
	// Week numbers are ISO year*100+week; anything below 200001 is garbage.
	if f.WeekNumber < 200001 {
		return fmt.Errorf("invalid week number %d", f.WeekNumber)
	}
	return nil
}

func (f WeekFilter) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("submissions.week_number = ?", f.WeekNumber)
}

type DateRangeFilter struct {
	From *time.Time
	To   *time.Time
}

func (f DateRangeFilter) Validate() error {
	if f.From == nil && f.To == nil {
		return fmt.Errorf("date range filter requires from or to")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("date range end precedes start")
	}
	return nil
}

func (f DateRangeFilter) Apply(q *gorm.DB) *gorm.DB {
	if f.From != nil {
		q = q.Where("submissions.create_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("submissions.create_at <= ?", *f.To)
	}
	return q
}

type XpRangeFilter struct {
	Min *int
	Max *int
}

func (f XpRangeFilter) Validate() error {
	if f.Min == nil && f.Max == nil {
		return fmt.Errorf("xp range filter requires min or max")
	}
	if f.Min != nil && f.Max != nil && *f.Max < *f.Min {
		return fmt.Errorf("xp range max below min")
	}
	return nil
}

func (f XpRangeFilter) Apply(q *gorm.DB) *gorm.DB {
	if f.Min != nil {
		q = q.Where("submissions.final_xp >= ?", *f.Min)
	}
	if f.Max != nil {
		q = q.Where("submissions.final_xp <= ?", *f.Max)
	}
	return q
}

type SearchFilter struct {
	Query string
}

func (f SearchFilter) Validate() error {
	trimmed := strings.TrimSpace(f.Query)
	if trimmed == "" {
		return fmt.Errorf("search filter requires a query")
	}
	if len(trimmed) > 200 {
		return fmt.Errorf("search query too long")
	}
	return nil
}

func (f SearchFilter) Apply(q *gorm.DB) *gorm.DB {
	like := "%" + strings.TrimSpace(f.Query) + "%"
	return q.Where("(submissions.title LIKE ? OR submissions.url LIKE ? OR submissions.submission_number LIKE ?)",
		like, like, like)
}

// ApplySubmissionFilters validates every filter, then applies them all.
// The first invalid filter aborts with its error and the query is left
// untouched.
func ApplySubmissionFilters(q *gorm.DB, filters []SubmissionFilter) (*gorm.DB, error) {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	for _, f := range filters {
		q = f.Apply(q)
	}
	return q, nil
}

// ParseSubmissionFilters builds the filter list from request query
// parameters. get returns "" for absent parameters (gin's c.Query).
func ParseSubmissionFilters(get func(string) string) ([]SubmissionFilter, error) {
	var filters []SubmissionFilter

	if raw := get("status"); raw != "" {
		statuses := strings.Split(raw, ",")
		for i := range statuses {
			statuses[i] = strings.ToUpper(strings.TrimSpace(statuses[i]))
		}
		filters = append(filters, StatusFilter{Statuses: statuses})
	}
	if raw := get("platform"); raw != "" {
		filters = append(filters, PlatformFilter{Platform: strings.TrimSpace(raw)})
	}
	if raw := get("week"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid week parameter: %q", raw)
		}
		filters = append(filters, WeekFilter{WeekNumber: week})
	}
	if fromRaw, toRaw := get("from"), get("to"); fromRaw != "" || toRaw != "" {
		var rangeFilter DateRangeFilter
		if fromRaw != "" {
			from, err := time.Parse("2006-01-02", fromRaw)
			if err != nil {
				return nil, fmt.Errorf("invalid from date: %q", fromRaw)
			}
			rangeFilter.From = &from
		}
		if toRaw != "" {
			to, err := time.Parse("2006-01-02", toRaw)
			if err != nil {
				return nil, fmt.Errorf("invalid to date: %q", toRaw)
			}
			// Inclusive end of day.
			to = to.Add(24*time.Hour - time.Nanosecond)
			rangeFilter.To = &to
		}
		filters = append(filters, rangeFilter)
	}
	if minRaw, maxRaw := get("min_xp"), get("max_xp"); minRaw != "" || maxRaw != "" {
		var xpFilter XpRangeFilter
		if minRaw != "" {
			min, err := strconv.Atoi(minRaw)
			if err != nil {
				return nil, fmt.Errorf("invalid min_xp: %q", minRaw)
			}
			xpFilter.Min = &min
		}
		if maxRaw != "" {
			max, err := strconv.Atoi(maxRaw)
			if err != nil {
				return nil, fmt.Errorf("invalid max_xp: %q", maxRaw)
			}
			xpFilter.Max = &max
		}
		filters = append(filters, xpFilter)
	}
	if raw := get("search"); raw != "" {
		filters = append(filters, SearchFilter{Query: raw})
	}

	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	return filters, nil
}
