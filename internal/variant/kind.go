// Package variant decides which concrete output shape a polymorphic value
// takes: success or error payload, resource subtype, or person versus
// resource.
package variant

import (
	"fmt"
	"slices"
	"strings"
)

// ResourceKind is the closed set of resource subtypes.
type ResourceKind string

const (
	AirBridge            ResourceKind = "AirBridge"
	AirConditioner       ResourceKind = "AirConditioner"
	AirStartDevice       ResourceKind = "AirStartDevice"
	AircraftTug          ResourceKind = "AircraftTug"
	Ambulift             ResourceKind = "Ambulift"
	BaggageTractor       ResourceKind = "BaggageTractor"
	BeltLoader           ResourceKind = "BeltLoader"
	Car                  ResourceKind = "Car"
	ContainerLoader      ResourceKind = "ContainerLoader"
	DeicingCar           ResourceKind = "DeicingCar"
	Extinguisher         ResourceKind = "Extinguisher"
	GPU                  ResourceKind = "GPU"
	GasRefueller         ResourceKind = "GasRefueller"
	Heater               ResourceKind = "Heater"
	HeaterCar            ResourceKind = "HeaterCar"
	PaxBus               ResourceKind = "PaxBus"
	PaxStairs            ResourceKind = "PaxStairs"
	Stepladder           ResourceKind = "Stepladder"
	Towbar               ResourceKind = "Towbar"
	TowbarAdapter        ResourceKind = "TowbarAdapter"
	Tractor              ResourceKind = "Tractor"
	VacuumCleaner        ResourceKind = "VacuumCleaner"
	VacuumSweeper        ResourceKind = "VacuumSweeper"
	VipServiceCar        ResourceKind = "VipServiceCar"
	WasteDisposalMachine ResourceKind = "WasteDisposalMachine"
	WaterCar             ResourceKind = "WaterCar"
)

// DefaultResourceKind is returned for unrecognized resourceType values.
// Unknown types resolve to the most common subtype instead of failing.
const DefaultResourceKind = Car

var resourceKinds = []ResourceKind{
	AirBridge, AirConditioner, AirStartDevice, AircraftTug, Ambulift,
	BaggageTractor, BeltLoader, Car, ContainerLoader, DeicingCar,
	Extinguisher, GPU, GasRefueller, Heater, HeaterCar, PaxBus, PaxStairs,
	Stepladder, Towbar, TowbarAdapter, Tractor, VacuumCleaner,
	VacuumSweeper, VipServiceCar, WasteDisposalMachine, WaterCar,
}

var kindByName = func() map[string]ResourceKind {
	m := make(map[string]ResourceKind, len(resourceKinds))
	for _, k := range resourceKinds {
		m[string(k)] = k
	}
	return m
}()

// ResourceKinds returns every subtype in declaration order.
func ResourceKinds() []ResourceKind {
	return slices.Clone(resourceKinds)
}

// ParseResourceKind maps a resourceType value to its subtype.
func ParseResourceKind(s string) (ResourceKind, bool) {
	k, ok := kindByName[s]
	return k, ok
}

// CheckEnum verifies that the schema's ResourceType enumeration and the
// Go subtype set are the same set. Every mismatch is listed.
func CheckEnum(enum []string) error {
	var missing, extra []string

	inEnum := make(map[string]bool, len(enum))
	for _, v := range enum {
		inEnum[v] = true
		if _, ok := kindByName[v]; !ok {
			missing = append(missing, v)
		}
	}
	for _, k := range resourceKinds {
		if !inEnum[string(k)] {
			extra = append(extra, string(k))
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "schema values without a subtype: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "subtypes not in schema: "+strings.Join(extra, ", "))
	}
	return fmt.Errorf("resource type enum mismatch: %s", strings.Join(parts, "; "))
}
