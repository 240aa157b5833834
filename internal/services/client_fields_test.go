package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/validation"
	"gorm.io/datatypes"
)

var repairNow = time.Date(2030, 1, 10, 15, 0, 0, 0, time.UTC)

func TestRepairClientFields_NullColumnsGetDefaults(t *testing.T) {
	fields, repaired := RepairClientFields(&models.Client{Name: "Acme"}, repairNow)

	assert.Len(t, fields.OnboardingChecklist, 10)
	assert.Equal(t, "1", fields.OnboardingChecklist[0].ID)
	assert.Equal(t, DefaultBudget(), fields.Budget)
	require.Len(t, fields.Timeline, 3)
	assert.Equal(t, "2030-01-17", fields.Timeline[0].Date)
	assert.Equal(t, "2030-02-09", fields.Timeline[2].EndDate)
	assert.Empty(t, fields.TrackingResults)
	assert.NotNil(t, fields.HiredPeople)
	assert.NotNil(t, fields.VideoFolder.Links)
	assert.Equal(t, []string{
		models.FieldOnboardingChecklist,
		models.FieldBudget,
		models.FieldTimeline,
		models.FieldTrackingResults,
		models.FieldHiredPeople,
		models.FieldVideoFolder,
	}, repaired)
}

func TestRepairClientFields_WellFormedIsUntouched(t *testing.T) {
	client := &models.Client{
		OnboardingChecklist: datatypes.JSON(`[{"id":"a","title":"Contract","completed":true}]`),
		Budget:              datatypes.JSON(`{"total":5000,"currency":"EUR","breakdown":[{"category":"Ads","amount":1000}],"notes":"q1"}`),
		Timeline:            datatypes.JSON(`[]`),
		TrackingResults:     datatypes.JSON(`[]`),
		HiredPeople:         datatypes.JSON(`[]`),
		VideoFolder:         datatypes.JSON(`{"path":"/videos","links":["https://x.test/1"],"notes":""}`),
	}

	fields, repaired := RepairClientFields(client, repairNow)

	assert.Empty(t, repaired)
	assert.True(t, fields.OnboardingChecklist[0].Completed)
	assert.Equal(t, 5000.0, fields.Budget.Total)
	assert.Equal(t, "EUR", fields.Budget.Currency)
	assert.Equal(t, []string{"https://x.test/1"}, fields.VideoFolder.Links)
}

func TestRepairClientFields_CoercesLooseValues(t *testing.T) {
	client := &models.Client{
		OnboardingChecklist: datatypes.JSON(`["Contract", {"title":"Kickoff","completed":"true"}, 7]`),
		Budget:              datatypes.JSON(`{"total":"1200.5"}`),
		Timeline:            datatypes.JSON(`"not a list"`),
		TrackingResults:     datatypes.JSON(`[{"id":"1","date":"2030-01-01","title":"Week 1","metrics":{"views":"300"}}]`),
		HiredPeople:         datatypes.JSON(`{broken`),
		VideoFolder:         datatypes.JSON(`{"path":"/v","links":[1,"https://ok.test"],"notes":""}`),
	}

	fields, repaired := RepairClientFields(client, repairNow)

	assert.Len(t, repaired, 6)

	require.Len(t, fields.OnboardingChecklist, 2)
	assert.Equal(t, "Contract", fields.OnboardingChecklist[0].Title)
	assert.Equal(t, "2", fields.OnboardingChecklist[1].ID)
	assert.True(t, fields.OnboardingChecklist[1].Completed)

	assert.Equal(t, 1200.5, fields.Budget.Total)
	assert.NotEmpty(t, fields.Budget.Currency)
	assert.NotNil(t, fields.Budget.Breakdown)

	assert.Len(t, fields.Timeline, 3)
	assert.Equal(t, 300.0, fields.TrackingResults[0].Metrics.Views)
	assert.Empty(t, fields.HiredPeople)
	assert.Equal(t, []string{"https://ok.test"}, fields.VideoFolder.Links)
}

// the budget always comes back as an object, whatever was stored
func TestRepairClientFields_BudgetAlwaysObject(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`, `"x"`, `42`, `{}`, `{"breakdown":"x"}`} {
		fields, _ := RepairClientFields(&models.Client{Budget: datatypes.JSON(raw)}, repairNow)

		encoded, err := json.Marshal(fields.Budget)
		require.NoError(t, err)
		assert.Equal(t, byte('{'), encoded[0], raw)
		assert.NotNil(t, fields.Budget.Breakdown, raw)
	}
}

func TestEncodeClientFields_OnlyNamedColumns(t *testing.T) {
	fields, repaired := RepairClientFields(&models.Client{
		Budget: datatypes.JSON(`{"total":1,"currency":"USD","breakdown":[],"notes":""}`),
	}, repairNow)
	require.NotContains(t, repaired, models.FieldBudget)

	columns, err := EncodeClientFields(fields, repaired)
	require.NoError(t, err)

	assert.Len(t, columns, 5)
	assert.NotContains(t, columns, models.FieldBudget)
	assert.JSONEq(t, `{"path":"","links":[],"notes":""}`, string(columns[models.FieldVideoFolder].(datatypes.JSON)))
}

func TestValidateClientField(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		raw     string
		details validation.Violations
		want    string
	}{
		{
			name:  "checklist ids are assigned",
			field: models.FieldOnboardingChecklist,
			raw:   `[{"title":"Contract"}]`,
			want:  `[{"id":"1","title":"Contract","completed":false}]`,
		},
		{
			name:    "checklist must be an array",
			field:   models.FieldOnboardingChecklist,
			raw:     `{"title":"x"}`,
			details: validation.Violations{"onboarding_checklist": "must_be_array"},
		},
		{
			name:    "null is rejected",
			field:   models.FieldBudget,
			raw:     `null`,
			details: validation.Violations{"budget": "must_be_object"},
		},
		{
			name:  "budget currency defaults",
			field: models.FieldBudget,
			raw:   `{"total":100}`,
			want:  `{"total":100,"currency":"USD","breakdown":[],"notes":""}`,
		},
		{
			name:    "negative budget line",
			field:   models.FieldBudget,
			raw:     `{"total":100,"breakdown":[{"category":"Ads","amount":-1}]}`,
			details: validation.Violations{"budget.breakdown[0].amount": "must_not_be_negative"},
		},
		{
			name:    "unknown keys are rejected",
			field:   models.FieldVideoFolder,
			raw:     `{"path":"/v","colour":"red"}`,
			details: validation.Violations{"video_folder": "invalid_shape"},
		},
		{
			name:    "timeline end before start",
			field:   models.FieldTimeline,
			raw:     `[{"title":"Launch","date":"2030-02-01","end_date":"2030-01-01"}]`,
			details: validation.Violations{"timeline[0].end_date": "before_date"},
		},
		{
			name:    "tracking date",
			field:   models.FieldTrackingResults,
			raw:     `[{"title":"Week 1","date":"soon"}]`,
			details: validation.Violations{"tracking_results[0].date": "invalid_date"},
		},
		{
			name:    "hired person name",
			field:   models.FieldHiredPeople,
			raw:     `[{"role":"Editor"}]`,
			details: validation.Violations{"hired_people[0].name": "required"},
		},
		{
			name:    "unknown field",
			field:   "mood_board",
			raw:     `[]`,
			details: validation.Violations{"mood_board": "unknown_field"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validation.Violations{}
			got := ValidateClientField(tt.field, json.RawMessage(tt.raw), v)

			if tt.details != nil {
				for field, reason := range tt.details {
					assert.Equal(t, reason, v[field])
				}
				return
			}
			require.True(t, v.Empty(), v.Error())
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
