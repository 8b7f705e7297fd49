package db

type VitalsModel struct {
	VitalID     string `json:"vitalId" bson:"_id"`
	PatientName string `json:"patientName" bson:"patientName"`
	VitalsName  string `json:"vitalsName" bson:"vitalsName"`   // e.g., "heart_rate", "blood_pressure"
	VitalsValue string `json:"vitalsValue" bson:"vitalsValue"` // free text, units included, e.g., "120/80 mmHg"
	Timestamp   string `json:"timestamp" bson:"timestamp"`
}

func (m VitalsModel) Id() string { return m.VitalID }

func (m VitalsModel) CollectionName() string { return "vitals" }
