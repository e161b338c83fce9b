package vindecode

import (
	"fmt"
	"strconv"
	"strings"
)

// The closed taxonomies below normalize vendor vocabulary by
// case-insensitive substring match. Unrecognized values pass through
// verbatim so new vendor terms are never silently dropped.

var bodyTypeRules = []struct {
	substr string
	mapped string
}{
	{"sport utility", "SUV"},
	{"suv", "SUV"},
	{"crossover", "SUV"},
	{"sedan", "Sedan"},
	{"saloon", "Sedan"},
	{"pickup", "Truck"},
	{"truck", "Truck"},
	{"coupe", "Coupe"},
	{"convertible", "Convertible"},
	{"cabriolet", "Convertible"},
	{"minivan", "Minivan"},
	{"van", "Minivan"},
	{"wagon", "Wagon"},
	{"hatchback", "Hatchback"},
}

func normalizeBodyType(raw string) string {
	lower := strings.ToLower(raw)
	for _, rule := range bodyTypeRules {
		if strings.Contains(lower, rule.substr) {
			return rule.mapped
		}
	}
	return raw
}

var drivetrainRules = []struct {
	substr string
	mapped string
}{
	{"4wd", "4WD"},
	{"4x4", "4WD"},
	{"four-wheel", "4WD"},
	{"awd", "AWD"},
	{"all-wheel", "AWD"},
	{"fwd", "FWD"},
	{"front-wheel", "FWD"},
	{"rwd", "RWD"},
	{"rear-wheel", "RWD"},
}

func normalizeDrivetrain(raw string) string {
	lower := strings.ToLower(raw)
	for _, rule := range drivetrainRules {
		if strings.Contains(lower, rule.substr) {
			return rule.mapped
		}
	}
	return raw
}

var fuelTypeRules = []struct {
	substr string
	mapped string
}{
	{"flex", "Flex Fuel"},
	{"e85", "Flex Fuel"},
	{"plug-in", "Hybrid"},
	{"hybrid", "Hybrid"},
	{"electric", "Electric"},
	{"battery", "Electric"},
	{"diesel", "Diesel"},
	{"gasoline", "Gasoline"},
	{"gas", "Gasoline"},
}

func normalizeFuelType(raw string) string {
	lower := strings.ToLower(raw)
	for _, rule := range fuelTypeRules {
		if strings.Contains(lower, rule.substr) {
			return rule.mapped
		}
	}
	return raw
}

// buildEngine synthesizes a human-readable engine description from the
// raw displacement, cylinder count, and configuration fields, omitting
// whatever is unavailable.
func buildEngine(displacement, cylinders, configuration string) string {
	var parts []string

	if displacement != "" {
		parts = append(parts, formatDisplacement(displacement))
	}

	lowerConfig := strings.ToLower(configuration)
	switch {
	case cylinders != "" && strings.Contains(lowerConfig, "v"):
		parts = append(parts, "V"+cylinders)
	case cylinders != "":
		parts = append(parts, cylinders+"-Cylinder")
	}

	return strings.Join(parts, " ")
}

// formatDisplacement renders "2" as "2.0L" and "3.5" as "3.5L".
func formatDisplacement(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw + "L"
	}
	return fmt.Sprintf("%.1fL", v)
}

// buildTransmission synthesizes "{speeds}-Speed {style}" from the raw
// style and speed-count fields.
func buildTransmission(style, speeds string) string {
	mapped := normalizeTransmissionStyle(style)
	if mapped == "" {
		return ""
	}
	if speeds == "" {
		return mapped
	}
	return fmt.Sprintf("%s-Speed %s", speeds, mapped)
}

func normalizeTransmissionStyle(raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "cvt"), strings.Contains(lower, "continuously variable"):
		return "CVT"
	case strings.Contains(lower, "automated"):
		return "Automated Manual"
	case strings.Contains(lower, "manual"):
		return "Manual"
	case strings.Contains(lower, "automatic"):
		return "Automatic"
	}
	return raw
}
