package importer

import (
	"math"
	"strconv"
	"strings"

	"door-catalog/internal/models"
	"door-catalog/internal/textutil"
)

// DefaultProductName se usa cuando la fila no trae nombre
const DefaultProductName = "Sản phẩm mới"

// accessoryTokens marcan un accesorio dentro del campo tipo, ya sin tildes
var accessoryTokens = []string{"phu kien", "accessor"}

// parseSpecifications interpreta "clave:valor;clave:valor". Los segmentos sin
// clave o sin valor se descartan.
func parseSpecifications(raw string) []models.Specification {
	var specs []models.Specification
	for _, segment := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(segment, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		specs = append(specs, models.Specification{Key: key, Value: value})
	}
	return specs
}

// resolveType decide el tipo por palabra clave, no por igualdad exacta
func resolveType(raw string) models.ProductType {
	folded := textutil.StripDiacritics(textutil.Fold(raw))
	for _, token := range accessoryTokens {
		if strings.Contains(folded, token) {
			return models.TypeAccessory
		}
	}
	return models.TypeDoor
}

// parsePrice acepta precios como "4.500.000 đ" o "1,250.50"; lo que no se
// puede leer o es negativo vale 0
func parsePrice(raw string) float64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, mark := range []string{"vnđ", "vnd", "đ", "₫", "$"} {
		s = strings.ReplaceAll(s, mark, "")
	}
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0
	}

	s = normalizeSeparators(s)
	price, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

// normalizeSeparators deja un único punto decimal y quita los de miles
func normalizeSeparators(s string) string {
	dots, commas := strings.Count(s, "."), strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		// el separador que aparece último es el decimal
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots == 1:
		if thousandsGroup(s, ".") {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	case commas == 1:
		if thousandsGroup(s, ",") {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.ReplaceAll(s, ",", ".")
	}
	return s
}

// thousandsGroup indica que tras el separador vienen exactamente tres dígitos
func thousandsGroup(s, sep string) bool {
	_, after, _ := strings.Cut(s, sep)
	if len(after) != 3 {
		return false
	}
	for _, r := range after {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// resolveCategory devuelve la categoría con la grafía de la configuración,
// o la primera categoría si no se reconoce
func resolveCategory(raw string, categories []string) string {
	if len(categories) == 0 {
		return strings.TrimSpace(raw)
	}
	if key := textutil.Fold(raw); key != "" {
		for _, c := range categories {
			if textutil.Fold(c) == key {
				return c
			}
		}
	}
	return categories[0]
}

func splitFeatures(raw string) []string {
	features := []string{}
	for _, f := range strings.Split(raw, ";") {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return features
}

// buildInput arma el producto de una fila, sin imagen todavía
func buildInput(row models.ImportRow, s models.Settings) models.ProductInput {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		name = DefaultProductName
	}

	productType := resolveType(row.Type)
	specs := parseSpecifications(row.Specifications)
	if len(specs) == 0 {
		specs = s.SpecTemplate(productType)
	}

	return models.ProductInput{
		Name:           name,
		Category:       resolveCategory(row.Category, s.Categories),
		Type:           productType,
		Price:          parsePrice(row.Price),
		Description:    strings.TrimSpace(row.Description),
		Features:       splitFeatures(row.Features),
		Specifications: specs,
	}
}
