package models

// Shapes of the semi-structured client columns.

type ChecklistItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type BudgetLine struct {
	ID       string  `json:"id,omitempty"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes,omitempty"`
}

type ClientBudget struct {
	Total     float64      `json:"total"`
	Currency  string       `json:"currency"`
	Breakdown []BudgetLine `json:"breakdown"`
	Notes     string       `json:"notes"`
}

type TimelineEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	EndDate     string `json:"end_date,omitempty"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type TrackingMetrics struct {
	Views       float64 `json:"views"`
	Engagement  float64 `json:"engagement"`
	Followers   float64 `json:"followers"`
	Conversions float64 `json:"conversions"`
}

type TrackingResult struct {
	ID      string          `json:"id"`
	Date    string          `json:"date"`
	Title   string          `json:"title"`
	Metrics TrackingMetrics `json:"metrics"`
}

type HiredPerson struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	TeamMemberID *string `json:"team_member_id,omitempty"`
	External     bool    `json:"external"`
	Rate         float64 `json:"rate"`
	Notes        string  `json:"notes"`
}

type VideoFolder struct {
	Path  string   `json:"path"`
	Links []string `json:"links"`
	Notes string   `json:"notes"`
}

// ClientFields holds the decoded form of every JSON column on Client.
type ClientFields struct {
	OnboardingChecklist []ChecklistItem  `json:"onboarding_checklist"`
	Budget              ClientBudget     `json:"budget"`
	Timeline            []TimelineEvent  `json:"timeline"`
	TrackingResults     []TrackingResult `json:"tracking_results"`
	HiredPeople         []HiredPerson    `json:"hired_people"`
	VideoFolder         VideoFolder      `json:"video_folder"`
}

// Client JSON column names.
const (
	FieldOnboardingChecklist = "onboarding_checklist"
	FieldBudget              = "budget"
	FieldTimeline            = "timeline"
	FieldTrackingResults     = "tracking_results"
	FieldHiredPeople         = "hired_people"
	FieldVideoFolder         = "video_folder"
)
