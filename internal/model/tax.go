package model

// TaxResult is the full BPM breakdown for one vehicle. GrossBPM is the
// base component plus the bracket-accumulated variable component; the
// diesel surcharge is additive on top; depreciation applies to the
// combined total, never to the parts separately.
type TaxResult struct {
	BaseComponent          float64  `json:"baseComponent"`
	VariableComponent      float64  `json:"variableComponent"`
	GrossBPM               float64  `json:"grossBPM"`
	DieselSurcharge        float64  `json:"dieselSurcharge"`
	TotalGrossBPM          float64  `json:"totalGrossBPM"`
	DepreciationPercentage float64  `json:"depreciationPercentage"`
	RestBPM                float64  `json:"restBPM"`
	VehicleAgeMonths       int      `json:"vehicleAgeMonths"`
	CO2GKM                 float64  `json:"co2_gkm"`
	FuelType               FuelType `json:"fuelType"`
}
