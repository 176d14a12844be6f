package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meditrack/lifeline/core/model"
)

// EventDef is one scripted event in a scenario file.
type EventDef struct {
	Kind    string `yaml:"kind"`
	Room    string `yaml:"room"`
	DelayMS int    `yaml:"delay_ms"`

	PatientID  string  `yaml:"patient_id,omitempty"`
	HospitalID string  `yaml:"hospital_id,omitempty"`
	TriageID   string  `yaml:"triage_id,omitempty"`
	StaffID    string  `yaml:"staff_id,omitempty"`
	StaffType  string  `yaml:"staff_type,omitempty"`
	AlertType  string  `yaml:"alert_type,omitempty"`
	Message    string  `yaml:"message,omitempty"`
	RiskLevel  string  `yaml:"risk_level,omitempty"`
	RiskScore  float64 `yaml:"risk_score,omitempty"`
	Status     string  `yaml:"status,omitempty"`
	Available  bool    `yaml:"available,omitempty"`
}

// Payload converts the definition to the wire payload.
func (e EventDef) Payload() model.EventPayload {
	return model.EventPayload{
		PatientID:  e.PatientID,
		HospitalID: e.HospitalID,
		TriageID:   e.TriageID,
		StaffID:    e.StaffID,
		StaffType:  e.StaffType,
		AlertType:  e.AlertType,
		Message:    e.Message,
		RiskLevel:  e.RiskLevel,
		RiskScore:  e.RiskScore,
		Status:     e.Status,
		Available:  e.Available,
	}
}

// Scenario is a scripted sequence of events to publish.
type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Events      []EventDef `yaml:"events"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate checks that every event names a known kind and a room.
func (s Scenario) Validate() error {
	for i, e := range s.Events {
		if model.ParseEventKind(e.Kind) == model.EventUnknown {
			return fmt.Errorf("event %d: unknown kind %q", i, e.Kind)
		}
		if e.Room == "" {
			return fmt.Errorf("event %d: room is required", i)
		}
	}
	return nil
}
