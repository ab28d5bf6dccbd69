// Package model contains the run request, run record and queue job passed
// between the service, the worker pool and the run store.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/seirsim/internal/domain/epidemic"
	"github.com/okian/seirsim/internal/domain/policy"
	"github.com/okian/seirsim/internal/domain/simerr"
)

// DateLayout is the calendar format of StartDate.
const DateLayout = "2006-01-02"

// Request describes one simulation: model parameters, intervention policy
// and horizon.
type Request struct {
	Parameters  epidemic.Parameters `json:"parameters" yaml:"parameters" koanf:"parameters"`
	Policy      policy.Config       `json:"policy" yaml:"policy" koanf:"policy"`
	HorizonDays int                 `json:"horizon_days" yaml:"horizon_days" koanf:"horizon_days"`
	StartDate   string              `json:"start_date,omitempty" yaml:"start_date,omitempty" koanf:"start_date"`
}

// Validate checks the request against a horizon ceiling; maxHorizon <= 0
// disables the ceiling.
func (r Request) Validate(maxHorizon int) error {
	const op = "model.validate"
	if r.HorizonDays <= 0 {
		return simerr.Invalid(op, "horizon_days must be positive, got %d", r.HorizonDays)
	}
	if maxHorizon > 0 && r.HorizonDays > maxHorizon {
		return simerr.Invalid(op, "horizon_days %d exceeds the limit of %d", r.HorizonDays, maxHorizon)
	}
	if err := r.Parameters.Validate(); err != nil {
		return err
	}
	if err := r.Policy.Validate(r.HorizonDays); err != nil {
		return err
	}
	if _, err := r.Start(); err != nil {
		return err
	}
	return nil
}

// Start parses StartDate; an empty date yields the zero time.
func (r Request) Start() (time.Time, error) {
	s := strings.TrimSpace(r.StartDate)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, simerr.Invalid("model.start", "start_date %q is not YYYY-MM-DD", r.StartDate)
	}
	return t, nil
}

// Fingerprint is a stable digest of the request. Runs are deterministic, so
// equal fingerprints always produce equal series.
func (r Request) Fingerprint() string {
	r.Policy.Kind = policy.Kind(strings.ToLower(strings.TrimSpace(string(r.Policy.Kind))))
	if r.Policy.Kind == "" {
		r.Policy.Kind = policy.KindNone
	}
	switch r.Policy.Kind {
	case policy.KindNone:
		r.Policy.Static, r.Policy.Dynamic = nil, nil
	case policy.KindStatic:
		r.Policy.Dynamic = nil
	case policy.KindDynamic:
		r.Policy.Static = nil
	}
	r.StartDate = strings.TrimSpace(r.StartDate)
	b, err := json.Marshal(r)
	if err != nil {
		// NaN or Inf parameters; such requests never pass Validate.
		b = []byte(fmt.Sprintf("%+v", r))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
