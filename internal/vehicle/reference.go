package vehicle

import "swiftpolicy/internal/model"

// reference holds vehicles whose specification is known without a provider call.
var reference = map[string]model.VehicleSpec{
	"AB12CDE": {Make: "VOLKSWAGEN", Model: "GOLF", Year: "2012", FuelType: "Petrol", EngineSize: "1390cc", Color: "Silver"},
	"SG71OYK": {Make: "VOLKSWAGEN", Model: "GOLF R-LINE TSI", Year: "2021", FuelType: "Petrol", EngineSize: "1498cc", Color: "Lapiz Blue"},
	"LD19XCH": {Make: "TESLA", Model: "MODEL 3 PERFORMANCE", Year: "2019", FuelType: "Electric", EngineSize: "0cc", Color: "Pearl White"},
	"GF15XYL": {Make: "FORD", Model: "FIESTA ZETEC", Year: "2015", FuelType: "Petrol", EngineSize: "1242cc", Color: "Race Red"},
	"BK66WRZ": {Make: "BMW", Model: "320D M SPORT", Year: "2016", FuelType: "Diesel", EngineSize: "1995cc", Color: "Estoril Blue"},
	"LC70VWF": {Make: "AUDI", Model: "A3 S LINE 35 TFSI", Year: "2020", FuelType: "Petrol", EngineSize: "1498cc", Color: "Daytona Grey"},
}

// Reference returns the stored specification for a normalised mark.
func Reference(vrm string) (model.VehicleSpec, bool) {
	spec, ok := reference[vrm]
	if ok {
		spec.Registration = vrm
	}
	return spec, ok
}
