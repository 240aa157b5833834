package services

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/yukikurage/agency-ops-api/internal/constants"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"github.com/yukikurage/agency-ops-api/internal/validation"
	"gorm.io/datatypes"
)

var defaultChecklistTitles = []string{
	"Signed contract",
	"Initial payment received",
	"Kickoff call scheduled",
	"Brand guidelines received",
	"Social media account access",
	"Analytics access granted",
	"Content calendar approved",
	"Target audience defined",
	"Competitor analysis completed",
	"Reporting cadence agreed",
}

// DefaultChecklist returns the onboarding checklist given to new or broken records.
func DefaultChecklist() []models.ChecklistItem {
	items := make([]models.ChecklistItem, len(defaultChecklistTitles))
	for i, title := range defaultChecklistTitles {
		items[i] = models.ChecklistItem{ID: strconv.Itoa(i + 1), Title: title}
	}
	return items
}

func DefaultBudget() models.ClientBudget {
	return models.ClientBudget{Currency: constants.DefaultCurrency, Breakdown: []models.BudgetLine{}}
}

// DefaultTimeline returns three placeholder milestones relative to today.
func DefaultTimeline(today time.Time) []models.TimelineEvent {
	day := func(n int) string { return today.AddDate(0, 0, n).Format(utils.DateLayout) }
	return []models.TimelineEvent{
		{ID: "1", Title: "Strategy kickoff", Date: day(7), Status: "pending", Description: "Agree on goals, channels and success metrics"},
		{ID: "2", Title: "First content delivery", Date: day(14), Status: "pending", Description: "Deliver the first batch of content for review"},
		{ID: "3", Title: "Campaign launch", Date: day(16), EndDate: day(30), Status: "pending", Description: "Publish and monitor the first campaign"},
	}
}

func DefaultVideoFolder() models.VideoFolder {
	return models.VideoFolder{Links: []string{}}
}

// RepairClientFields decodes the JSON columns of c, replacing anything that is
// missing or of the wrong shape with defaults. The names of the fields that
// needed repair are returned in column order. Nothing is written back.
func RepairClientFields(c *models.Client, now time.Time) (models.ClientFields, []string) {
	r := &fieldRepairer{today: utils.StartOfDay(now)}
	fields := models.ClientFields{
		OnboardingChecklist: r.checklist(c.OnboardingChecklist),
		Budget:              r.budget(c.Budget),
		Timeline:            r.timeline(c.Timeline),
		TrackingResults:     r.trackingResults(c.TrackingResults),
		HiredPeople:         r.hiredPeople(c.HiredPeople),
		VideoFolder:         r.videoFolder(c.VideoFolder),
	}
	return fields, r.repaired
}

// EncodeClientFields returns the column values for persisting the given fields.
func EncodeClientFields(f models.ClientFields, names []string) (map[string]interface{}, error) {
	values := map[string]interface{}{
		models.FieldOnboardingChecklist: f.OnboardingChecklist,
		models.FieldBudget:              f.Budget,
		models.FieldTimeline:            f.Timeline,
		models.FieldTrackingResults:     f.TrackingResults,
		models.FieldHiredPeople:         f.HiredPeople,
		models.FieldVideoFolder:         f.VideoFolder,
	}
	columns := make(map[string]interface{}, len(names))
	for _, name := range names {
		b, err := json.Marshal(values[name])
		if err != nil {
			return nil, err
		}
		columns[name] = datatypes.JSON(b)
	}
	return columns, nil
}

type fieldRepairer struct {
	today    time.Time
	repaired []string
}

func (r *fieldRepairer) mark(field string) {
	r.repaired = append(r.repaired, field)
}

func decodeLoose(raw datatypes.JSON) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func (r *fieldRepairer) checklist(raw datatypes.JSON) []models.ChecklistItem {
	list, ok := decodeLoose(raw).([]interface{})
	if !ok {
		r.mark(models.FieldOnboardingChecklist)
		return DefaultChecklist()
	}

	var co coercer
	items := make([]models.ChecklistItem, 0, len(list))
	for i, e := range list {
		switch e := e.(type) {
		case map[string]interface{}:
			items = append(items, models.ChecklistItem{
				ID:        co.id(e, i),
				Title:     co.str(e, "title"),
				Completed: co.flag(e, "completed"),
			})
		case string:
			co.changed = true
			items = append(items, models.ChecklistItem{ID: strconv.Itoa(i + 1), Title: e})
		default:
			co.changed = true
		}
	}
	if co.changed {
		r.mark(models.FieldOnboardingChecklist)
	}
	return items
}

func (r *fieldRepairer) budget(raw datatypes.JSON) models.ClientBudget {
	m, ok := decodeLoose(raw).(map[string]interface{})
	if !ok {
		r.mark(models.FieldBudget)
		return DefaultBudget()
	}

	var co coercer
	b := models.ClientBudget{
		Total:     co.num(m, "total"),
		Currency:  co.str(m, "currency"),
		Breakdown: []models.BudgetLine{},
		Notes:     co.optStr(m, "notes"),
	}
	if b.Currency == "" {
		co.changed = true
		b.Currency = constants.DefaultCurrency
	}

	lines, isList := m["breakdown"].([]interface{})
	if !isList {
		co.changed = true
	}
	for _, e := range lines {
		line, isObj := e.(map[string]interface{})
		if !isObj {
			co.changed = true
			continue
		}
		b.Breakdown = append(b.Breakdown, models.BudgetLine{
			ID:       co.optStr(line, "id"),
			Category: co.str(line, "category"),
			Amount:   co.num(line, "amount"),
			Notes:    co.optStr(line, "notes"),
		})
	}

	if co.changed {
		r.mark(models.FieldBudget)
	}
	return b
}

func (r *fieldRepairer) timeline(raw datatypes.JSON) []models.TimelineEvent {
	list, ok := decodeLoose(raw).([]interface{})
	if !ok {
		r.mark(models.FieldTimeline)
		return DefaultTimeline(r.today)
	}

	var co coercer
	events := make([]models.TimelineEvent, 0, len(list))
	for i, e := range list {
		m, isObj := e.(map[string]interface{})
		if !isObj {
			co.changed = true
			continue
		}
		events = append(events, models.TimelineEvent{
			ID:          co.id(m, i),
			Title:       co.str(m, "title"),
			Date:        co.str(m, "date"),
			EndDate:     co.optStr(m, "end_date"),
			Status:      co.str(m, "status"),
			Description: co.optStr(m, "description"),
		})
	}
	if co.changed {
		r.mark(models.FieldTimeline)
	}
	return events
}

func (r *fieldRepairer) trackingResults(raw datatypes.JSON) []models.TrackingResult {
	list, ok := decodeLoose(raw).([]interface{})
	if !ok {
		r.mark(models.FieldTrackingResults)
		return []models.TrackingResult{}
	}

	var co coercer
	results := make([]models.TrackingResult, 0, len(list))
	for i, e := range list {
		m, isObj := e.(map[string]interface{})
		if !isObj {
			co.changed = true
			continue
		}
		metrics, isMetrics := m["metrics"].(map[string]interface{})
		if !isMetrics {
			co.changed = true
			metrics = map[string]interface{}{}
		}
		results = append(results, models.TrackingResult{
			ID:    co.id(m, i),
			Date:  co.str(m, "date"),
			Title: co.str(m, "title"),
			Metrics: models.TrackingMetrics{
				Views:       co.num(metrics, "views"),
				Engagement:  co.num(metrics, "engagement"),
				Followers:   co.num(metrics, "followers"),
				Conversions: co.num(metrics, "conversions"),
			},
		})
	}
	if co.changed {
		r.mark(models.FieldTrackingResults)
	}
	return results
}

func (r *fieldRepairer) hiredPeople(raw datatypes.JSON) []models.HiredPerson {
	list, ok := decodeLoose(raw).([]interface{})
	if !ok {
		r.mark(models.FieldHiredPeople)
		return []models.HiredPerson{}
	}

	var co coercer
	people := make([]models.HiredPerson, 0, len(list))
	for i, e := range list {
		m, isObj := e.(map[string]interface{})
		if !isObj {
			co.changed = true
			continue
		}
		p := models.HiredPerson{
			ID:       co.id(m, i),
			Name:     co.str(m, "name"),
			Role:     co.str(m, "role"),
			External: co.flag(m, "external"),
			Rate:     co.num(m, "rate"),
			Notes:    co.optStr(m, "notes"),
		}
		if tm := co.optStr(m, "team_member_id"); tm != "" {
			p.TeamMemberID = &tm
		}
		people = append(people, p)
	}
	if co.changed {
		r.mark(models.FieldHiredPeople)
	}
	return people
}

func (r *fieldRepairer) videoFolder(raw datatypes.JSON) models.VideoFolder {
	m, ok := decodeLoose(raw).(map[string]interface{})
	if !ok {
		r.mark(models.FieldVideoFolder)
		return DefaultVideoFolder()
	}

	var co coercer
	vf := models.VideoFolder{
		Path:  co.str(m, "path"),
		Links: []string{},
		Notes: co.str(m, "notes"),
	}
	links, isList := m["links"].([]interface{})
	if !isList {
		co.changed = true
	}
	for _, l := range links {
		s, isStr := l.(string)
		if !isStr {
			co.changed = true
			continue
		}
		vf.Links = append(vf.Links, s)
	}
	if co.changed {
		r.mark(models.FieldVideoFolder)
	}
	return vf
}

// coercer reads loosely typed JSON values and remembers whether any value
// was missing or had to be converted.
type coercer struct {
	changed bool
}

func (c *coercer) str(m map[string]interface{}, key string) string {
	v := m[key]
	if s, ok := v.(string); ok {
		return s
	}
	c.changed = true
	return looseString(v)
}

func (c *coercer) optStr(m map[string]interface{}, key string) string {
	v, present := m[key]
	if !present || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	c.changed = true
	return looseString(v)
}

// id returns the element id, numbering from 1 when it is absent.
func (c *coercer) id(m map[string]interface{}, index int) string {
	if s := c.optStr(m, "id"); s != "" {
		return s
	}
	c.changed = true
	return strconv.Itoa(index + 1)
}

func (c *coercer) num(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		c.changed = true
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		c.changed = true
		return 0
	}
}

func (c *coercer) flag(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		c.changed = true
		return v == "true"
	case float64:
		c.changed = true
		return v != 0
	default:
		c.changed = true
		return false
	}
}

func looseString(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// ValidateClientField strictly checks a JSON field written by a caller and
// returns its canonical encoding. Problems are recorded in v under the field name.
func ValidateClientField(name string, raw json.RawMessage, v validation.Violations) datatypes.JSON {
	var value interface{}
	var ok bool
	switch name {
	case models.FieldOnboardingChecklist:
		value, ok = validateChecklist(raw, v)
	case models.FieldBudget:
		value, ok = validateBudget(raw, v)
	case models.FieldTimeline:
		value, ok = validateTimeline(raw, v)
	case models.FieldTrackingResults:
		value, ok = validateTrackingResults(raw, v)
	case models.FieldHiredPeople:
		value, ok = validateHiredPeople(raw, v)
	case models.FieldVideoFolder:
		value, ok = validateVideoFolder(raw, v)
	default:
		v.Add(name, "unknown_field")
		return nil
	}
	if !ok {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		v.Add(name, "invalid_shape")
		return nil
	}
	return datatypes.JSON(b)
}

func jsonKind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// decodeStrict checks the container kind and decodes raw into dst, rejecting unknown keys.
func decodeStrict(name string, raw json.RawMessage, kind byte, dst interface{}, v validation.Violations) bool {
	if jsonKind(raw) != kind {
		if kind == '[' {
			v.Add(name, "must_be_array")
		} else {
			v.Add(name, "must_be_object")
		}
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		v.Add(name, "invalid_shape")
		return false
	}
	return true
}

func validDate(s string) bool {
	t, err := utils.ParseDate(s)
	return err == nil && t != nil
}

func validateChecklist(raw json.RawMessage, v validation.Violations) (interface{}, bool) {
	var items []models.ChecklistItem
	if !decodeStrict(models.FieldOnboardingChecklist, raw, '[', &items, v) {
		return nil, false
	}
	for i := range items {
		validation.Required(validation.Index(models.FieldOnboardingChecklist, i, "title"), items[i].Title, v)
		if items[i].ID == "" {
			items[i].ID = strconv.Itoa(i + 1)
		}
	}
	if items == nil {
		items = []models.ChecklistItem{}
	}
	return items, true
}

func validateBudget(raw json.RawMessage, v validation.Violations) (interface{}, bool) {
	var b models.ClientBudget
	if !decodeStrict(models.FieldBudget, raw, '{', &b, v) {
		return nil, false
	}
	validation.NonNegativeFloat(models.FieldBudget+".total", b.Total, v)
	if b.Currency == "" {
		b.Currency = constants.DefaultCurrency
	}
	for i, line := range b.Breakdown {
		validation.Required(validation.Index(models.FieldBudget+".breakdown", i, "category"), line.Category, v)
		validation.NonNegativeFloat(validation.Index(models.FieldBudget+".breakdown", i, "amount"), line.Amount, v)
	}
	if b.Breakdown == nil {
		b.Breakdown = []models.BudgetLine{}
	}
	return b, true
}

func validateTimeline(raw json.RawMessage, v validation.Violations) (interface{}, bool) {
	var events []models.TimelineEvent
	if !decodeStrict(models.FieldTimeline, raw, '[', &events, v) {
		return nil, false
	}
	for i := range events {
		e := &events[i]
		validation.Required(validation.Index(models.FieldTimeline, i, "title"), e.Title, v)
		if !validDate(e.Date) {
			v.Add(validation.Index(models.FieldTimeline, i, "date"), "invalid_date")
		}
		if e.EndDate != "" {
			if !validDate(e.EndDate) {
				v.Add(validation.Index(models.FieldTimeline, i, "end_date"), "invalid_date")
			} else if validDate(e.Date) {
				start, _ := utils.ParseDate(e.Date)
				end, _ := utils.ParseDate(e.EndDate)
				if end.Before(*start) {
					v.Add(validation.Index(models.FieldTimeline, i, "end_date"), "before_date")
				}
			}
		}
		if e.ID == "" {
			e.ID = strconv.Itoa(i + 1)
		}
		if e.Status == "" {
			e.Status = "pending"
		}
	}
	if events == nil {
		events = []models.TimelineEvent{}
	}
	return events, true
}

func validateTrackingResults(raw json.RawMessage, v validation.Violations) (interface{}, bool) {
	var results []models.TrackingResult
	if !decodeStrict(models.FieldTrackingResults, raw, '[', &results, v) {
		return nil, false
	}
	for i := range results {
		validation.Required(validation.Index(models.FieldTrackingResults, i, "title"), results[i].Title, v)
		if !validDate(results[i].Date) {
			v.Add(validation.Index(models.FieldTrackingResults, i, "date"), "invalid_date")
		}
		if results[i].ID == "" {
			results[i].ID = strconv.Itoa(i + 1)
		}
	}
	if results == nil {
		results = []models.TrackingResult{}
	}
	return results, true
}

func validateHiredPeople(raw json.RawMessage, v validation.Violations) (interface{}, bool) {
	var people []models.HiredPerson
	if !decodeStrict(models.FieldHiredPeople, raw, '[', &people, v) {
		return nil, false
	}
	for i := range people {
		validation.Required(validation.Index(models.FieldHiredPeople, i, "name"), people[i].Name, v)
		validation.NonNegativeFloat(validation.Index(models.FieldHiredPeople, i, "rate"), people[i].Rate, v)
		if people[i].ID == "" {
			people[i].ID = strconv.Itoa(i + 1)
		}
	}
	if people == nil {
		people = []models.HiredPerson{}
	}
	return people, true
}

func validateVideoFolder(raw json.RawMessage, v validation.Violations) (interface{}, bool) {
	var vf models.VideoFolder
	if !decodeStrict(models.FieldVideoFolder, raw, '{', &vf, v) {
		return nil, false
	}
	for i, link := range vf.Links {
		validation.Required(models.FieldVideoFolder+".links["+strconv.Itoa(i)+"]", link, v)
	}
	if vf.Links == nil {
		vf.Links = []string{}
	}
	return vf, true
}
