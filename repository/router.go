package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
)

// route is the index chosen for a filter, its key condition and whatever
// criteria the key condition could not express.
type route struct {
	Index    *IndexDefinition
	Key      dal.KeyCondition
	Residual []dal.Predicate
}

// dateRange holds bounds already rendered in models.TimestampFormat
type dateRange struct {
	From string
	To   string
}

func (d dateRange) empty() bool { return d.From == "" && d.To == "" }

// routeFilter picks the most selective index for f: role+status, then
// status, then date range, then the catch-all index of the entity type.
func (s *Schema) routeFilter(f models.Filter) (*route, error) {
	status := dedupe(f.Status)
	roles := dedupe(f.Role)

	for _, v := range status {
		if !s.isEnumValue(s.StatusField, v) {
			return nil, models.NewValidationError("status", fmt.Sprintf("unsupported status %q", v))
		}
	}
	if len(roles) > 0 {
		if s.RoleField == "" {
			return nil, models.NewValidationError("role", fmt.Sprintf("%s has no role", strings.ToLower(s.Type)))
		}
		for _, v := range roles {
			if !s.isEnumValue(s.RoleField, v) {
				return nil, models.NewValidationError("role", fmt.Sprintf("unsupported role %q", v))
			}
		}
	}
	dates, err := parseDateRange(f.DateFrom, f.DateTo)
	if err != nil {
		return nil, err
	}
	if !dates.empty() && s.DateField == "" {
		return nil, models.NewValidationError("dateFrom", fmt.Sprintf("%s has no date field", strings.ToLower(s.Type)))
	}

	r := &route{}
	usedStatus, usedRole, usedDate := false, false, false
	values := map[string]string{}

	switch {
	case len(roles) == 1 && len(status) == 1 && s.index(AccessRoleStatus) != nil:
		r.Index = s.index(AccessRoleStatus)
		values[s.RoleField] = roles[0]
		values[s.StatusField] = status[0]
		usedStatus, usedRole = true, true
	case len(status) == 1 && s.index(AccessStatus) != nil:
		r.Index = s.index(AccessStatus)
		values[s.StatusField] = status[0]
		usedStatus = true
	case !dates.empty() && s.index(AccessDate) != nil:
		r.Index = s.index(AccessDate)
		usedDate = true
	default:
		r.Index = s.index(AccessAll)
	}

	// records carrying an excluded status never appear in the chosen index
	for _, v := range status {
		if r.Index.excludes(v) {
			return nil, models.NewValidationError("status",
				fmt.Sprintf("status %s cannot be combined with other statuses", v))
		}
	}

	pk, ok := r.Index.PartitionTemplate.Render(func(field string) (string, bool) {
		v, ok := values[field]
		return v, ok
	})
	if !ok {
		return nil, models.NewValidationError("filter", "unsupported filter combination")
	}
	r.Key = dal.KeyCondition{
		PartitionKey:   r.Index.PartitionKey,
		PartitionValue: pk,
		SortKey:        r.Index.SortKey,
	}
	if usedDate {
		r.Key.SortOp, r.Key.SortValues = dates.sortCondition()
	}

	if !usedStatus && len(status) > 0 {
		r.Residual = append(r.Residual, dal.Predicate{Op: dal.OpIn, Attribute: s.StatusField, Values: status})
	}
	if !usedRole && len(roles) > 0 {
		r.Residual = append(r.Residual, dal.Predicate{Op: dal.OpIn, Attribute: s.RoleField, Values: roles})
	}
	if !usedDate && !dates.empty() {
		op, vals := dates.predicate()
		r.Residual = append(r.Residual, dal.Predicate{Op: op, Attribute: s.DateField, Values: vals})
	}
	return r, nil
}

func (d dateRange) sortCondition() (dal.SortOperator, []string) {
	switch {
	case d.From != "" && d.To != "":
		return dal.SortBetween, []string{d.From, d.To}
	case d.From != "":
		return dal.SortGreaterOrEqual, []string{d.From}
	default:
		return dal.SortLessOrEqual, []string{d.To}
	}
}

func (d dateRange) predicate() (dal.PredicateOp, []string) {
	switch {
	case d.From != "" && d.To != "":
		return dal.OpBetween, []string{d.From, d.To}
	case d.From != "":
		return dal.OpGreaterOrEqual, []string{d.From}
	default:
		return dal.OpLessOrEqual, []string{d.To}
	}
}

// parseDateRange accepts RFC3339 or YYYY-MM-DD bounds. A date-only upper
// bound covers the whole day.
func parseDateRange(from, to string) (dateRange, error) {
	var r dateRange
	if from = strings.TrimSpace(from); from != "" {
		t, _, err := parseDate(from)
		if err != nil {
			return r, models.NewValidationError("dateFrom", "expected RFC3339 or YYYY-MM-DD")
		}
		r.From = models.FormatTimestamp(t)
	}
	if to = strings.TrimSpace(to); to != "" {
		t, dateOnly, err := parseDate(to)
		if err != nil {
			return r, models.NewValidationError("dateTo", "expected RFC3339 or YYYY-MM-DD")
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		r.To = models.FormatTimestamp(t)
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return r, models.NewValidationError("dateFrom", "dateFrom must not be after dateTo")
	}
	return r, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	return t, true, err
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
