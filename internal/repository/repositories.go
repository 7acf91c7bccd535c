package repository

import "gorm.io/gorm"

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Manufacturers ManufacturerRepository
	Models        VehicleModelRepository
	Parts         PartRepository
	Movements     StockMovementRepository
	Kits          KitComponentRepository
	Sequences     SequenceRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Manufacturers: NewManufacturerRepository(db),
		Models:        NewVehicleModelRepository(db),
		Parts:         NewPartRepository(db),
		Movements:     NewStockMovementRepository(db),
		Kits:          NewKitComponentRepository(db),
		Sequences:     NewSequenceRepository(),
	}
}
