package advisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidDiagnosis is returned when a diagnosis context is malformed.
var ErrInvalidDiagnosis = errors.New("invalid diagnosis context")

// Treatment types recognized by the template fallback.
const (
	TreatmentOrganic    = "organic"
	TreatmentChemical   = "chemical"
	TreatmentCultural   = "cultural"
	TreatmentBiological = "biological"
)

// DiagnosisContext is the structured output of a crop disease detector.
type DiagnosisContext struct {
	Crop        string      `json:"crop" validate:"required"`
	DiseaseName string      `json:"disease_name" validate:"required"`
	Confidence  *float64    `json:"confidence" validate:"required,gte=0,lte=100"`
	Severity    string      `json:"severity" validate:"required"`
	Treatments  []Treatment `json:"treatments" validate:"dive"`
}

// Treatment is one recommended action.
type Treatment struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"omitempty,oneof=organic chemical cultural biological"`
}

// UnmarshalJSON accepts either an object or a bare string. A missing type
// is inferred from the wording.
func (t *Treatment) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = Treatment{Name: name, Type: inferTreatmentType(name)}
		return nil
	}

	type plain Treatment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Treatment(p)
	t.Type = strings.ToLower(strings.TrimSpace(t.Type))
	if t.Type == "" {
		t.Type = inferTreatmentType(t.Name)
	}
	return nil
}

var (
	organicHints  = []string{"organic", "neem", "compost", "manure", "garlic", "soap", "bordeaux", "trichoderma", "bio"}
	chemicalHints = []string{"fungicide", "insecticide", "pesticide", "chemical", "mancozeb", "chlorothalonil", "copper oxychloride", "imidacloprid", "carbendazim", "spray"}
)

func inferTreatmentType(name string) string {
	lower := strings.ToLower(name)
	for _, h := range organicHints {
		if strings.Contains(lower, h) {
			return TreatmentOrganic
		}
	}
	for _, h := range chemicalHints {
		if strings.Contains(lower, h) {
			return TreatmentChemical
		}
	}
	return TreatmentCultural
}

// validate is a single instance of Validate, it caches struct info
var validate = validator.New()

// Validate checks that every required field is present and in range.
func (d *DiagnosisContext) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: missing", ErrInvalidDiagnosis)
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDiagnosis, err)
	}
	return nil
}

// ParseDiagnosis decodes and validates a raw diagnosis context. An empty or
// null payload returns (nil, nil).
func ParseDiagnosis(raw json.RawMessage) (*DiagnosisContext, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var d DiagnosisContext
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDiagnosis, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ConfidencePercent returns the confidence as a percentage. Detectors
// report either a fraction or a percentage.
func (d *DiagnosisContext) ConfidencePercent() float64 {
	if d.Confidence == nil {
		return 0
	}
	c := *d.Confidence
	if c <= 1 {
		return c * 100
	}
	return c
}

// FirstTreatment returns the first treatment of the given type.
func (d *DiagnosisContext) FirstTreatment(kind string) (Treatment, bool) {
	for _, t := range d.Treatments {
		if t.Type == kind {
			return t, true
		}
	}
	return Treatment{}, false
}
