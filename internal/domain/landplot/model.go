package landplot

import "time"

// Landplot is a tenant's field that crops are planted on.
type Landplot struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	AreaHectares *float64  `json:"area_hectares,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary is a lightweight representation for listing
type Summary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	AreaHectares *float64  `json:"area_hectares,omitempty"`
	CropCount    int       `json:"crop_count"`
	OngoingCrops int       `json:"ongoing_crops"`
	CreatedAt    time.Time `json:"created_at"`
}
