package domain

// VehicleProfile describes the delivery vehicle used for cost calculation.
type VehicleProfile struct {
	VehicleType        string  `validate:"required"`
	FuelEfficiencyMPG  float64 `validate:"gt=0"`
	FuelPricePerGallon float64 `validate:"gt=0"`
}

// DefaultFuelPricePerGallon is applied when a request omits the fuel price.
const DefaultFuelPricePerGallon = 3.5
