package simulator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScenario = `
name: ward-3-morning
description: risk spike followed by a bed update
events:
  - kind: risk_updated
    room: patient_P1
    patient_id: P1
    risk_level: critical
    risk_score: 0.91
  - kind: bed_status_changed
    room: hospital_H1
    hospital_id: H1
    delay_ms: 50
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeTemp(t, sampleScenario))
	require.NoError(t, err)
	assert.Equal(t, "ward-3-morning", sc.Name)
	require.Len(t, sc.Events, 2)
	assert.Equal(t, "risk_updated", sc.Events[0].Kind)
	assert.Equal(t, "patient_P1", sc.Events[0].Room)
	assert.InDelta(t, 0.91, sc.Events[0].RiskScore, 1e-9)
	assert.Equal(t, 50, sc.Events[1].DelayMS)
}

func TestLoadScenario_UnknownKind(t *testing.T) {
	_, err := LoadScenario(writeTemp(t, "events:\n  - kind: mystery\n    room: r\n"))
	assert.Error(t, err)
}

func TestLoadScenario_MissingRoom(t *testing.T) {
	_, err := LoadScenario(writeTemp(t, "events:\n  - kind: risk_updated\n"))
	assert.Error(t, err)
}

func TestEventDefPayload(t *testing.T) {
	def := EventDef{Kind: "risk_updated", PatientID: "P1", RiskLevel: "high", RiskScore: 0.5}
	p := def.Payload()
	assert.Equal(t, "P1", p.PatientID)
	assert.Equal(t, "high", p.RiskLevel)
}
