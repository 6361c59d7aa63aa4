// Package entry validates manually entered records and payments and turns
// them into model values.
package entry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Tiliavir/maintenance-notebook/internal/model"
	"github.com/Tiliavir/maintenance-notebook/internal/normalize"
	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

// RecordForm is a work record as typed by the user.
type RecordForm struct {
	Date             string   `validate:"required,datetime=2006-01-02"`
	Company          string   `validate:"lte=200"`
	Locality         string   `validate:"required,lte=200"`
	Site             string   `validate:"required,lte=200"`
	StartTime        string   `validate:"required,clock"`
	EndTime          string   `validate:"required,clock"`
	BreakDuration    string   `validate:"omitempty,clock"`
	ContractualHours *float64
	CompletedTasks   []model.CompletedTask
	PendingTasks     []string
	Notes            string
}

// PaymentForm is an overtime payment as typed by the user.
type PaymentForm struct {
	Date  string  `validate:"required,datetime=2006-01-02"`
	Hours float64 `validate:"finite,gt=0"`
	Note  string  `validate:"lte=500"`
}

// ValidationError lists every problem found in a form.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, ok := timecalc.ParseClock(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

var fieldLabels = map[string]string{
	"Date":          "date",
	"Company":       "company",
	"Locality":      "locality",
	"Site":          "site",
	"StartTime":     "start time",
	"EndTime":       "end time",
	"BreakDuration": "break",
	"Hours":         "hours",
	"Note":          "note",
}

// translate turns validator errors into messages a user can act on.
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		label := fieldLabels[fe.Field()]
		if label == "" {
			label = strings.ToLower(fe.Field())
		}
		var msg string
		switch fe.Tag() {
		case "required":
			msg = label + " is required"
		case "clock":
			msg = label + " must be a time like 08:30"
		case "datetime":
			msg = label + " must be a date like 2026-01-31"
		case "gt", "finite":
			msg = label + " must be a number greater than 0"
		case "lte":
			msg = fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
		default:
			msg = fmt.Sprintf("%s is invalid (%s)", label, fe.Tag())
		}
		ve.Problems = append(ve.Problems, msg)
	}
	return ve
}

func (f *RecordForm) trim() {
	f.Date = strings.TrimSpace(f.Date)
	f.Company = strings.TrimSpace(f.Company)
	f.Locality = strings.TrimSpace(f.Locality)
	f.Site = strings.TrimSpace(f.Site)
	f.StartTime = strings.TrimSpace(f.StartTime)
	f.EndTime = strings.TrimSpace(f.EndTime)
	f.BreakDuration = strings.TrimSpace(f.BreakDuration)
	f.Notes = strings.TrimSpace(f.Notes)
}

// Validate checks the form. Surrounding whitespace is ignored.
func (f RecordForm) Validate() error {
	f.trim()
	if err := validate.Struct(f); err != nil {
		return translate(err)
	}
	return nil
}

// Record validates the form and builds the record it describes, without an
// id or creation time. defaultContractual is used when the form leaves the
// contractual hours empty.
func (f RecordForm) Record(defaultContractual float64) (model.WorkRecord, error) {
	f.trim()
	if err := validate.Struct(f); err != nil {
		return model.WorkRecord{}, translate(err)
	}
	if f.BreakDuration == "" {
		f.BreakDuration = model.DefaultBreak
	}

	worked, ok := timecalc.WorkedHours(f.StartTime, f.EndTime, f.BreakDuration)
	if !ok {
		return model.WorkRecord{}, &ValidationError{Problems: []string{"start and end times are not valid"}}
	}

	contractual := defaultContractual
	if f.ContractualHours != nil {
		contractual = *f.ContractualHours
	}
	if math.IsNaN(contractual) || math.IsInf(contractual, 0) || contractual < 0 {
		contractual = 0
	}

	tasks := []model.CompletedTask{}
	for _, t := range f.CompletedTasks {
		t.Text = strings.TrimSpace(t.Text)
		mats := []model.Material{}
		for _, m := range t.Materials {
			m.Name, m.Quantity = strings.TrimSpace(m.Name), strings.TrimSpace(m.Quantity)
			if !m.Empty() {
				mats = append(mats, m)
			}
		}
		t.Materials = mats
		if t.Text == "" && len(mats) == 0 {
			continue
		}
		tasks = append(tasks, t)
	}
	pending := []string{}
	for _, p := range f.PendingTasks {
		if p = strings.TrimSpace(p); p != "" {
			pending = append(pending, p)
		}
	}

	r := model.WorkRecord{
		Date:             f.Date,
		Company:          f.Company,
		Locality:         f.Locality,
		Site:             f.Site,
		StartTime:        f.StartTime,
		EndTime:          f.EndTime,
		BreakDuration:    f.BreakDuration,
		ContractualHours: contractual,
		WorkedHours:      worked,
		OvertimeHours:    timecalc.Overtime(worked, contractual),
		CompletedTasks:   tasks,
		PendingTasks:     pending,
		Notes:            f.Notes,
	}
	r.Materials = []model.Material{}
	for _, t := range tasks {
		r.Materials = append(r.Materials, t.Materials...)
	}
	return r, nil
}

// Build validates the form and returns the normalized record, with a fresh
// id and creation time.
func (f RecordForm) Build(n *normalize.Normalizer, defaultContractual float64) (model.WorkRecord, error) {
	r, err := f.Record(defaultContractual)
	if err != nil {
		return model.WorkRecord{}, err
	}
	if n == nil {
		n = normalize.Default
	}
	return n.Record(r), nil
}

// Patch validates the form and returns the stored fields it sets, for
// merging over an existing record. Identity fields are left out.
func (f RecordForm) Patch(defaultContractual float64) (map[string]any, error) {
	r, err := f.Record(defaultContractual)
	if err != nil {
		return nil, err
	}
	patch := normalize.ToMap(r)
	delete(patch, "id")
	delete(patch, "createdAt")
	return patch, nil
}

// FromRecord fills a form with the values of an existing record.
func FromRecord(r model.WorkRecord) RecordForm {
	contractual := r.ContractualHours
	return RecordForm{
		Date:             r.Date,
		Company:          r.Company,
		Locality:         r.Locality,
		Site:             r.Site,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		BreakDuration:    r.BreakDuration,
		ContractualHours: &contractual,
		CompletedTasks:   append([]model.CompletedTask(nil), r.CompletedTasks...),
		PendingTasks:     append([]string(nil), r.PendingTasks...),
		Notes:            r.Notes,
	}
}

// Payment validates the form and returns the payment it describes. The id
// and creation time are left for the repository to assign.
func (f PaymentForm) Payment() (model.Payment, error) {
	f.Date = strings.TrimSpace(f.Date)
	f.Note = strings.TrimSpace(f.Note)
	if err := validate.Struct(f); err != nil {
		return model.Payment{}, translate(err)
	}
	return model.Payment{Date: f.Date, Hours: f.Hours, Note: f.Note}, nil
}

// ParseTask reads a completed task written as "text|name=qty|name".
// Segments after the first are materials; a segment without "=" is a
// material with no quantity.
func ParseTask(s string) model.CompletedTask {
	parts := strings.Split(s, "|")
	t := model.CompletedTask{Text: strings.TrimSpace(parts[0]), Materials: []model.Material{}}
	for _, p := range parts[1:] {
		name, qty, _ := strings.Cut(p, "=")
		m := model.Material{Name: strings.TrimSpace(name), Quantity: strings.TrimSpace(qty)}
		if !m.Empty() {
			t.Materials = append(t.Materials, m)
		}
	}
	return t
}
