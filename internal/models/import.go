package models

// ImportRow es una fila del archivo tabular tal como viene, sin normalizar
type ImportRow struct {
	Row            int    `json:"row" csv:"-"`
	Name           string `json:"name" csv:"name"`
	Price          string `json:"price" csv:"price"`
	Category       string `json:"category" csv:"category"`
	Type           string `json:"type" csv:"type"`
	Image          string `json:"image" csv:"image"`
	Description    string `json:"description" csv:"description"`
	Features       string `json:"features" csv:"features"`
	Specifications string `json:"specifications" csv:"specifications"`
}

// IsBlank indica que todos los campos están vacíos
func (r ImportRow) IsBlank() bool {
	return r.Name == "" && r.Price == "" && r.Category == "" && r.Type == "" &&
		r.Image == "" && r.Description == "" && r.Features == "" && r.Specifications == ""
}

// RowFailure describe un producto que no se pudo guardar
type RowFailure struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult es el resumen de una creación por lotes
type ImportResult struct {
	SuccessCount int          `json:"success_count"`
	FailCount    int          `json:"fail_count"`
	Failures     []RowFailure `json:"failures,omitempty"`
}
