package rooms

// Room naming conventions shared with the backend.

// PatientRoom returns the room carrying updates for one patient.
func PatientRoom(patientID string) string { return "patient_" + patientID }

// HospitalRoom returns the room carrying updates for one hospital.
func HospitalRoom(hospitalID string) string { return "hospital_" + hospitalID }

// TriageQueueRoom is the shared room for triage queue updates.
const TriageQueueRoom = "triage_queue"

// JoinPatientMonitoring subscribes one consumer to a patient's updates.
func (r *Registry) JoinPatientMonitoring(patientID string) { r.Join(PatientRoom(patientID)) }

// LeavePatientMonitoring drops one consumer from a patient's updates.
func (r *Registry) LeavePatientMonitoring(patientID string) { r.Leave(PatientRoom(patientID)) }

// JoinHospitalUpdates subscribes one consumer to a hospital's updates.
func (r *Registry) JoinHospitalUpdates(hospitalID string) { r.Join(HospitalRoom(hospitalID)) }

// LeaveHospitalUpdates drops one consumer from a hospital's updates.
func (r *Registry) LeaveHospitalUpdates(hospitalID string) { r.Leave(HospitalRoom(hospitalID)) }

// JoinTriageQueue subscribes one consumer to triage queue updates.
func (r *Registry) JoinTriageQueue() { r.Join(TriageQueueRoom) }

// LeaveTriageQueue drops one consumer from triage queue updates.
func (r *Registry) LeaveTriageQueue() { r.Leave(TriageQueueRoom) }
