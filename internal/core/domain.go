package core

import "errors"

// Transaction types.
const (
	MoneyIn  = 1
	MoneyOut = 2
)

// Transaction and budget statuses.
const (
	StatusPlanned = "planned"
	StatusActual  = "actual"
)

// Recurrence type IDs as stored in scenario documents.
const (
	RecurrenceOneTime       = 1
	RecurrenceDaily         = 2
	RecurrenceWeekly        = 3
	RecurrenceMonthlyByDay  = 4
	RecurrenceMonthlyByWeek = 5
	RecurrenceQuarterly     = 6
	RecurrenceYearly        = 7
	RecurrenceCustomDates   = 11
)

// Change modes.
const (
	ChangeModePercentage  = 1
	ChangeModeFixedAmount = 2
)

// Periodic change types (compounding styles).
const (
	ChangeSimple            = 1
	ChangeCompoundMonthly   = 2
	ChangeCompoundDaily     = 3
	ChangeCompoundQuarterly = 4
	ChangeCompoundAnnually  = 5
	ChangeContinuous        = 6
	ChangeCustomCompounding = 7
	ChangeCustomNominal     = 8
)

// Rate period IDs: the period a nominal rate is quoted over.
const (
	RatePeriodAnnual    = 1
	RatePeriodMonthly   = 2
	RatePeriodQuarterly = 3
	RatePeriodDaily     = 4
	RatePeriodWeekly    = 5
)

// Frequency IDs: how often a fixed amount applies or interest compounds.
const (
	FrequencyDaily     = 1
	FrequencyWeekly    = 2
	FrequencyMonthly   = 3
	FrequencyQuarterly = 4
	FrequencyYearly    = 5
)

var (
	ErrMissingDates     = errors.New("cannot generate projections: missing dates")
	ErrScenarioNotFound = errors.New("scenario not found")
)

type (
	// Scenario is the in-memory document a projection runs over.
	Scenario struct {
		ID           int           `json:"id"`
		Name         string        `json:"name"`
		Accounts     []Account     `json:"accounts"`
		Transactions []Transaction `json:"transactions"`
		Budgets      []Budget      `json:"budgets,omitempty"`
		Projection   *Projection   `json:"projection,omitempty"`
	}

	// Projection holds the stored projection config of a scenario.
	Projection struct {
		Config ProjectionConfig `json:"config"`
	}

	// ProjectionConfig is the stored window and periodicity for a scenario.
	ProjectionConfig struct {
		StartDate    string `json:"startDate,omitempty"`
		EndDate      string `json:"endDate,omitempty"`
		PeriodTypeID int    `json:"periodTypeId,omitempty"`
		Source       string `json:"source,omitempty"`
	}

	Account struct {
		ID                     int               `json:"id"`
		Name                   string            `json:"name"`
		TypeID                 int               `json:"type,omitempty"`
		CurrencyID             int               `json:"currency,omitempty"`
		StartingBalance        float64           `json:"startingBalance"`
		OpenDate               string            `json:"openDate,omitempty"`
		PeriodicChange         *PeriodicChange   `json:"periodicChange,omitempty"`
		PeriodicChangeSchedule []ScheduledChange `json:"periodicChangeSchedule,omitempty"`
	}

	// ScheduledChange overrides an account's periodic change over a date window.
	// An empty EndDate leaves the window open.
	ScheduledChange struct {
		StartDate      string          `json:"startDate"`
		EndDate        string          `json:"endDate,omitempty"`
		PeriodicChange *PeriodicChange `json:"periodicChange"`
	}

	Transaction struct {
		ID                 int             `json:"id"`
		PrimaryAccountID   int             `json:"primaryAccountId"`
		SecondaryAccountID int             `json:"secondaryAccountId,omitempty"`
		TransactionTypeID  int             `json:"transactionTypeId"`
		Amount             float64         `json:"amount"`
		Description        string          `json:"description,omitempty"`
		EffectiveDate      string          `json:"effectiveDate,omitempty"`
		Recurrence         *Recurrence     `json:"recurrence,omitempty"`
		PeriodicChange     *PeriodicChange `json:"periodicChange,omitempty"`
		Status             string          `json:"status"`
		ActualDate         string          `json:"actualDate,omitempty"`
	}

	// Budget is a planned budget line; projected in the transaction shape.
	Budget struct {
		ID                 int         `json:"id"`
		PrimaryAccountID   int         `json:"primaryAccountId"`
		SecondaryAccountID int         `json:"secondaryAccountId,omitempty"`
		TransactionTypeID  int         `json:"transactionTypeId"`
		Amount             float64     `json:"amount"`
		Description        string      `json:"description,omitempty"`
		Date               string      `json:"date,omitempty"`
		Recurrence         *Recurrence `json:"recurrence,omitempty"`
		Status             string      `json:"status"`
	}

	// Recurrence describes when a transaction fires. Only the fields relevant
	// to RecurrenceType are read. Pointer fields distinguish "unset" from a
	// legitimate zero (Sunday is weekday 0).
	Recurrence struct {
		RecurrenceType   int    `json:"recurrenceType"`
		StartDate        string `json:"startDate,omitempty"`
		EndDate          string `json:"endDate,omitempty"`
		Interval         int    `json:"interval,omitempty"`
		DayOfWeek        *int   `json:"dayOfWeek,omitempty"`
		DayOfMonth       int    `json:"dayOfMonth,omitempty"`
		WeekOfMonth      int    `json:"weekOfMonth,omitempty"`
		DayOfWeekInMonth *int   `json:"dayOfWeekInMonth,omitempty"`
		DayOfQuarter     int    `json:"dayOfQuarter,omitempty"`
		Month            int    `json:"month,omitempty"`
		DayOfYear        int    `json:"dayOfYear,omitempty"`
		CustomDates      string `json:"customDates,omitempty"`
	}

	// PeriodicChange is the compact, ID-only growth specification as stored.
	// A zero Value means no change.
	PeriodicChange struct {
		Value             float64            `json:"value"`
		ChangeMode        int                `json:"changeMode"`
		ChangeType        int                `json:"changeType"`
		RatePeriod        int                `json:"ratePeriod,omitempty"`
		Period            int                `json:"period,omitempty"`
		Frequency         int                `json:"frequency,omitempty"`
		CustomCompounding *CustomCompounding `json:"customCompounding,omitempty"`
	}

	// CustomCompounding pairs a rate period ID with a compounding frequency ID.
	CustomCompounding struct {
		Period    int `json:"period"`
		Frequency int `json:"frequency"`
	}

	// Period is an inclusive calendar span.
	Period struct {
		Start Date
		End   Date
	}

	// ProjectionRecord is one (account, period) summary row.
	ProjectionRecord struct {
		ID         int     `json:"id"`
		ScenarioID int     `json:"scenarioId"`
		AccountID  int     `json:"accountId"`
		Account    string  `json:"account"`
		Date       string  `json:"date"`
		Balance    float64 `json:"balance"`
		Income     float64 `json:"income"`
		Expenses   float64 `json:"expenses"`
		NetChange  float64 `json:"netChange"`
		Interest   float64 `json:"interest"`
		Period     int     `json:"period"`
	}
)

// IsPlanned reports whether the transaction should be projected.
func (t Transaction) IsPlanned() bool {
	return t.Status == StatusPlanned
}

// IsSelfTransfer reports whether both legs name the same account.
func (t Transaction) IsSelfTransfer() bool {
	return t.PrimaryAccountID == t.SecondaryAccountID
}

// IsPlanned reports whether the budget line should be projected.
func (b Budget) IsPlanned() bool {
	return b.Status == StatusPlanned
}

// AsTransaction maps a budget line into the transaction shape. Budgets never
// escalate, so the periodic change is left empty.
func (b Budget) AsTransaction() Transaction {
	return Transaction{
		ID:                 b.ID,
		PrimaryAccountID:   b.PrimaryAccountID,
		SecondaryAccountID: b.SecondaryAccountID,
		TransactionTypeID:  b.TransactionTypeID,
		Amount:             b.Amount,
		Description:        b.Description,
		EffectiveDate:      b.Date,
		Recurrence:         b.Recurrence,
		Status:             b.Status,
	}
}

// IsZero reports whether the change is a no-op.
func (pc *PeriodicChange) IsZero() bool {
	return pc == nil || pc.Value == 0
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	return d.Between(p.Start, p.End)
}

// Days returns the inclusive day count of the period.
func (p Period) Days() int {
	return InclusiveDays(p.Start, p.End)
}
