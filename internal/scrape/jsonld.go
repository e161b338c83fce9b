package scrape

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// ExtractJSONLD scans every ld+json script block in the document and
// returns the vehicles it can recognize. A malformed block is skipped;
// it never aborts the page.
func ExtractJSONLD(body []byte, baseURL string) []inventory.ScrapedVehicle {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var vehicles []inventory.ScrapedVehicle
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(sel.Text()), &raw); err != nil {
			return
		}
		vehicles = append(vehicles, vehiclesFromJSONLD(raw, baseURL)...)
	})
	return vehicles
}

// vehiclesFromJSONLD walks one parsed ld+json value, which may be a
// vehicle object, an array of objects, or an ItemList wrapping them.
func vehiclesFromJSONLD(raw any, baseURL string) []inventory.ScrapedVehicle {
	switch node := raw.(type) {
	case []any:
		var out []inventory.ScrapedVehicle
		for _, item := range node {
			out = append(out, vehiclesFromJSONLD(item, baseURL)...)
		}
		return out
	case map[string]any:
		if isVehicleType(node) {
			if v, ok := vehicleFromObject(node, baseURL); ok {
				return []inventory.ScrapedVehicle{v}
			}
			return nil
		}
		if str(node["@type"]) == "ItemList" {
			elements, _ := node["itemListElement"].([]any)
			var out []inventory.ScrapedVehicle
			for _, el := range elements {
				entry, ok := el.(map[string]any)
				if !ok {
					continue
				}
				item, ok := entry["item"].(map[string]any)
				if !ok || !isVehicleType(item) {
					continue
				}
				if v, ok := vehicleFromObject(item, baseURL); ok {
					out = append(out, v)
				}
			}
			return out
		}
	}
	return nil
}

func isVehicleType(obj map[string]any) bool {
	switch str(obj["@type"]) {
	case "Vehicle", "Car", "Product":
		return true
	}
	return false
}

// vehicleFromObject maps one recognized object to a ScrapedVehicle.
// VIN is required; an object without one is skipped.
func vehicleFromObject(obj map[string]any, baseURL string) (inventory.ScrapedVehicle, bool) {
	vin := inventory.NormalizeVIN(firstStr(obj, "vehicleIdentificationNumber", "vin", "sku"))
	if !inventory.IsValidVIN(vin) {
		return inventory.ScrapedVehicle{}, false
	}

	offers, _ := obj["offers"].(map[string]any)

	v := inventory.ScrapedVehicle{
		VIN:   vin,
		Color: inventory.ColorUnknown,
	}

	if offers != nil {
		v.Price = num(offers["price"])
	}
	if v.Price == 0 {
		v.Price = num(obj["price"])
	}

	if odo, ok := obj["mileageFromOdometer"].(map[string]any); ok {
		v.Mileage = int(num(odo["value"]))
	}
	if v.Mileage == 0 {
		v.Mileage = int(num(obj["mileage"]))
	}

	if color := firstStr(obj, "color", "vehicleInteriorColor"); color != "" {
		v.Color = color
	}

	v.PhotoURLs = photoURLsFromJSONLD(obj["image"])

	detail := str(obj["url"])
	if detail == "" && offers != nil {
		detail = str(offers["url"])
	}
	if detail != "" {
		if abs, err := absolutize(baseURL, detail); err == nil {
			v.DetailURL = abs
		}
	}

	v.Year = int(num(obj["modelDate"]))
	if v.Year == 0 {
		v.Year = int(num(obj["vehicleModelDate"]))
	}
	if brand, ok := obj["brand"].(map[string]any); ok {
		v.Make = str(brand["name"])
	}
	if v.Make == "" {
		v.Make = str(obj["brand"])
	}
	v.Model = str(obj["model"])
	v.Description = str(obj["description"])

	return v, true
}

// photoURLsFromJSONLD accepts a string, an object with url/contentUrl,
// or an array of either.
func photoURLsFromJSONLD(image any) []string {
	var urls []string
	appendURL := func(raw string) {
		if cleaned := CleanPhotoURL(raw); cleaned != "" {
			urls = append(urls, cleaned)
		}
	}
	switch img := image.(type) {
	case string:
		appendURL(img)
	case map[string]any:
		appendURL(firstStr(img, "url", "contentUrl"))
	case []any:
		for _, item := range img {
			switch entry := item.(type) {
			case string:
				appendURL(entry)
			case map[string]any:
				appendURL(firstStr(entry, "url", "contentUrl"))
			}
		}
	}
	return urls
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func firstStr(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

// num coerces JSON numbers and numeric strings ("24,995") to float64.
func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(strings.TrimPrefix(n, "$")), ",", "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
