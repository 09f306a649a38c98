package models

import (
	"time"

	consentmodels "custodian/internal/consent/models"
	recordmodels "custodian/internal/records/models"
	subjectmodels "custodian/internal/subject/models"
)

// ExportWarning accompanies every bundle.
const ExportWarning = "Este arquivo contém dados pessoais sensíveis. Mantenha-o seguro e não compartilhe."

// Bundle is the complete personal-data export of one subject. Sensitive
// fields are in plaintext.
type Bundle struct {
	ExportedAt   time.Time                         `json:"exportDate"`
	Warning      string                            `json:"_warning"`
	Subject      *subjectmodels.View               `json:"member"`
	Donations    []recordmodels.Donation           `json:"donations"`
	Ministries   []recordmodels.MinistryMembership `json:"ministries"`
	Consents     []consentmodels.RecordResponse    `json:"consents"`
	DataRequests []Response                        `json:"dataRequests"`
}
