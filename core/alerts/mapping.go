package alerts

import (
	"fmt"

	"github.com/meditrack/lifeline/core/model"
)

// riskSeverity maps a clinical risk level to a display severity.
var riskSeverity = map[string]model.Severity{
	"critical": model.SeverityCritical,
	"high":     model.SeverityWarning,
	"medium":   model.SeverityInfo,
	"low":      model.SeveritySuccess,
}

// FromEvent builds the alert projection of an inbound event. The mapping is
// pure: the same event always yields the same severity, title and message.
// Returns false for kinds that do not produce alerts.
func FromEvent(ev model.Event) (model.Alert, bool) {
	p := ev.Payload
	switch ev.Kind {
	case model.EventPatientAlert:
		sev := model.SeverityWarning
		if p.AlertType == "critical" {
			sev = model.SeverityCritical
		}
		msg := p.Message
		if msg == "" {
			msg = fmt.Sprintf("New %s alert for patient %s", p.AlertType, p.PatientID)
		}
		return alert(ev, sev, fmt.Sprintf("Patient %s alert", p.PatientID), msg), true

	case model.EventRiskUpdated:
		sev, ok := riskSeverity[p.RiskLevel]
		if !ok {
			sev = model.SeverityInfo
		}
		return alert(ev, sev,
			fmt.Sprintf("Risk update: patient %s", p.PatientID),
			fmt.Sprintf("Risk level is now %s (score %.2f)", p.RiskLevel, p.RiskScore)), true

	case model.EventTriageUpdated:
		return alert(ev, model.SeverityInfo,
			fmt.Sprintf("Triage %s updated", p.TriageID),
			fmt.Sprintf("Triage status is now %s", p.Status)), true

	case model.EventHospitalAlert:
		sev := model.SeverityWarning
		if p.AlertType == "emergency" {
			sev = model.SeverityCritical
		}
		msg := p.Message
		if msg == "" {
			msg = fmt.Sprintf("%s alert for hospital %s", p.AlertType, p.HospitalID)
		}
		return alert(ev, sev, fmt.Sprintf("Hospital %s alert", p.HospitalID), msg), true

	case model.EventStaffAvailabilityChanged:
		state := "unavailable"
		if p.Available {
			state = "available"
		}
		return alert(ev, model.SeverityInfo,
			"Staff availability changed",
			fmt.Sprintf("%s %s is now %s", p.StaffType, p.StaffID, state)), true

	case model.EventBedStatusChanged:
		return alert(ev, model.SeverityInfo,
			"Bed availability changed",
			fmt.Sprintf("Bed status updated for hospital %s", p.HospitalID)), true

	default:
		return model.Alert{}, false
	}
}

func alert(ev model.Event, sev model.Severity, title, msg string) model.Alert {
	return model.Alert{
		Severity:   sev,
		Title:      title,
		Message:    msg,
		SourceKind: ev.Kind,
	}
}
