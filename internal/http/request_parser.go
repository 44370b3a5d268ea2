package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"forecast/internal/core"
	"forecast/internal/projection"
)

// maxBodyBytes bounds projection option bodies.
const maxBodyBytes = 64 << 10

// requestError is a client mistake answered with 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// ParseScenarioID reads the {id} path value as a positive integer.
func ParseScenarioID(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid scenario id %q", raw)
	}
	return id, nil
}

// ParseOptions reads run overrides from a JSON body, or from the query string
// when the body is empty. Values are checked for shape only; whether the
// resulting window is usable is decided by the engine.
func ParseOptions(w http.ResponseWriter, r *http.Request) (projection.Options, error) {
	var opts projection.Options

	if r.Body != nil && r.Body != http.NoBody {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		err := dec.Decode(&opts)
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			opts = optionsFromQuery(r.URL.Query())
		case errors.As(err, &maxErr):
			return projection.Options{}, badRequest("request body larger than %d bytes", maxErr.Limit)
		case err != nil:
			return projection.Options{}, badRequest("invalid JSON body: %v", err)
		}
	} else {
		opts = optionsFromQuery(r.URL.Query())
	}

	if err := validateOptions(opts); err != nil {
		return projection.Options{}, err
	}
	return opts, nil
}

func optionsFromQuery(q url.Values) projection.Options {
	opts := projection.Options{
		Source:      strings.TrimSpace(q.Get("source")),
		Periodicity: strings.TrimSpace(q.Get("periodicity")),
		StartDate:   strings.TrimSpace(q.Get("startDate")),
		EndDate:     strings.TrimSpace(q.Get("endDate")),
	}
	if v := strings.TrimSpace(q.Get("periodTypeId")); v != "" {
		// -1 marks a non-numeric value so validation rejects it
		if id, err := strconv.Atoi(v); err == nil {
			opts.PeriodTypeID = id
		} else {
			opts.PeriodTypeID = -1
		}
	}
	return opts
}

func validateOptions(opts projection.Options) error {
	if opts.Periodicity != "" {
		if _, ok := projection.ParsePeriodType(opts.Periodicity); !ok {
			return badRequest("unknown periodicity %q", opts.Periodicity)
		}
	}
	if opts.PeriodTypeID != 0 && !projection.PeriodType(opts.PeriodTypeID).Valid() {
		return badRequest("unknown periodTypeId %d", opts.PeriodTypeID)
	}
	switch opts.Source {
	case "", projection.SourceTransactions, projection.SourceBudget:
	default:
		return badRequest("unknown source %q", opts.Source)
	}
	for name, value := range map[string]string{"startDate": opts.StartDate, "endDate": opts.EndDate} {
		if value == "" {
			continue
		}
		if _, err := core.ParseDate(value); err != nil {
			return badRequest("invalid %s %q: want YYYY-MM-DD", name, value)
		}
	}
	return nil
}
