// internal/models/inventory.go
package models

// Vehicle is one unit of the demo inventory shown to customers.
type Vehicle struct {
	ID           string   `json:"id"`
	ImageURL     string   `json:"imageUrl"`
	Price        int      `json:"price"`
	Year         int      `json:"year"`
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Mileage      int      `json:"mileage"`
	Color        string   `json:"color,omitempty"`
	Transmission string   `json:"transmission,omitempty"`
	FuelType     string   `json:"fuelType,omitempty"`
	KeyFeatures  []string `json:"keyFeatures,omitempty"`
}

// MockVehicles is the static demo inventory. There is no live inventory
// system; applications snapshot one of these at submission time.
var MockVehicles = []Vehicle{
	{
		ID: "1", Price: 28500, Year: 2021, Make: "Honda", Model: "Civic",
		Mileage: 15000, Color: "Silver", Transmission: "Automatic", FuelType: "Gasoline",
		KeyFeatures: []string{"Honda Sensing Safety Suite", "Apple CarPlay & Android Auto", "Backup Camera"},
	},
	{
		ID: "2", Price: 32900, Year: 2022, Make: "Toyota", Model: "Camry",
		Mileage: 8500, Color: "White", Transmission: "Automatic", FuelType: "Gasoline",
		KeyFeatures: []string{"Toyota Safety Sense 2.0", "Wireless Phone Charging", "Blind Spot Monitor"},
	},
	{
		ID: "3", Price: 24900, Year: 2020, Make: "Mazda", Model: "CX-5",
		Mileage: 28000, Color: "Red", Transmission: "Automatic", FuelType: "Gasoline",
		KeyFeatures: []string{"i-Activsense Safety", "Leather Seats", "AWD"},
	},
	{
		ID: "4", Price: 41200, Year: 2023, Make: "Ford", Model: "F-150",
		Mileage: 5200, Color: "Blue", Transmission: "Automatic", FuelType: "Gasoline",
		KeyFeatures: []string{"Pro Power Onboard", "SYNC 4", "Tow Package"},
	},
	{
		ID: "5", Price: 36700, Year: 2022, Make: "Tesla", Model: "Model 3",
		Mileage: 12000, Color: "Black", Transmission: "Automatic", FuelType: "Electric",
		KeyFeatures: []string{"Autopilot", "Glass Roof", "Supercharging"},
	},
	{
		ID: "6", Price: 19800, Year: 2019, Make: "Hyundai", Model: "Elantra",
		Mileage: 41000, Color: "Gray", Transmission: "Automatic", FuelType: "Gasoline",
		KeyFeatures: []string{"Lane Keep Assist", "Heated Seats", "Android Auto"},
	},
}

// FindVehicle returns the inventory vehicle with the given id, or nil.
func FindVehicle(id string) *Vehicle {
	for i := range MockVehicles {
		if MockVehicles[i].ID == id {
			return &MockVehicles[i]
		}
	}
	return nil
}

// Snapshot copies the fields an application keeps about its vehicle.
func (v *Vehicle) Snapshot() *VehicleSnapshot {
	return &VehicleSnapshot{
		ID:    v.ID,
		Make:  v.Make,
		Model: v.Model,
		Year:  v.Year,
		Price: v.Price,
	}
}
