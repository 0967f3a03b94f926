package model

// PolicyType values are the labels shown to customers and are stored as-is.
type PolicyType string

const (
	PolicyTypeTraffic PolicyType = "Trafik Sigortası"
	PolicyTypeCasco   PolicyType = "Kasko"
	PolicyTypeDASK    PolicyType = "DASK"
	PolicyTypeHealth  PolicyType = "Tamamlayıcı Sağlık"
)

var PolicyTypes = []PolicyType{PolicyTypeTraffic, PolicyTypeCasco, PolicyTypeDASK, PolicyTypeHealth}

func (t PolicyType) Valid() bool {
	for _, known := range PolicyTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Policy struct {
	ID          string     `json:"id"`
	PlateNumber string     `json:"plateNumber"`
	HolderName  string     `json:"holderName"`
	Type        PolicyType `json:"type"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	Premium     float64    `json:"premium"`
	VehicleInfo string     `json:"vehicleInfo,omitempty"`
}

type Urgency struct {
	DaysRemaining int     `json:"days_remaining"`
	Tier          string  `json:"tier"`
	Progress      float64 `json:"progress"`
	Label         string  `json:"label"`
}

const (
	TierExpired = "EXPIRED"
	TierUrgent  = "URGENT"
	TierSoon    = "SOON"
	TierHealthy = "HEALTHY"
)

type PolicyView struct {
	Policy  Policy  `json:"policy"`
	Urgency Urgency `json:"urgency"`
}
