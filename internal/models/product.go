package models

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ProductType clasifica un producto: decide la plantilla de especificaciones
// y la pestaña pública donde aparece
type ProductType string

const (
	TypeDoor      ProductType = "door"
	TypeAccessory ProductType = "accessory"
)

// Valid indica si el tipo es uno de los conocidos
func (t ProductType) Valid() bool {
	return t == TypeDoor || t == TypeAccessory
}

// Specification es un atributo técnico mostrado en la ficha del producto
type Specification struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

// Product representa un producto en el catálogo
type Product struct {
	ID             string          `json:"id" bson:"_id"`
	Name           string          `json:"name" bson:"name"`
	Slug           string          `json:"slug" bson:"slug"`
	Category       string          `json:"category" bson:"category"`
	Type           ProductType     `json:"type" bson:"type"`
	Price          float64         `json:"price" bson:"price"`
	Image          string          `json:"image" bson:"image"`
	Description    string          `json:"description" bson:"description"`
	Features       []string        `json:"features" bson:"features"`
	Specifications []Specification `json:"specifications" bson:"specifications"`
	CreatedAt      int64           `json:"created_at" bson:"created_at"`
	UpdatedAt      int64           `json:"updated_at" bson:"updated_at"`
}

// ProductInput son los datos de un producto antes de persistirlo.
// El ID lo asigna el repositorio; el slug también si viene vacío.
type ProductInput struct {
	Name           string          `json:"name" binding:"required"`
	Slug           string          `json:"slug,omitempty"`
	Category       string          `json:"category" binding:"required"`
	Type           ProductType     `json:"type" binding:"required"`
	Price          float64         `json:"price"`
	Image          string          `json:"image"`
	Description    string          `json:"description,omitempty"`
	Features       []string        `json:"features,omitempty"`
	Specifications []Specification `json:"specifications,omitempty"`
}

// ProductUpdate representa los campos actualizables de un producto.
// El slug, el ID y la fecha de creación no se pueden cambiar.
type ProductUpdate struct {
	Name           *string          `json:"name,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Type           *ProductType     `json:"type,omitempty"`
	Price          *float64         `json:"price,omitempty"`
	Image          *string          `json:"image,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Features       *[]string        `json:"features,omitempty"`
	Specifications *[]Specification `json:"specifications,omitempty"`
}

// IsEmpty indica que no hay ningún campo para actualizar
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Type == nil && u.Price == nil &&
		u.Image == nil && u.Description == nil && u.Features == nil && u.Specifications == nil
}

// Apply copia sobre p los campos presentes en la actualización
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = CleanName(*u.Name)
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Type != nil {
		p.Type = *u.Type
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Features != nil {
		p.Features = CleanFeatures(*u.Features)
	}
	if u.Specifications != nil {
		p.Specifications = CleanSpecifications(*u.Specifications)
	}
}

// CleanName recorta el nombre y lo deja en NFC
func CleanName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// CleanFeatures recorta cada viñeta y descarta las vacías
func CleanFeatures(features []string) []string {
	out := make([]string, 0, len(features))
	for _, f := range features {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// CleanSpecifications descarta los pares con clave o valor vacío.
// Nunca se persiste una especificación incompleta.
func CleanSpecifications(specs []Specification) []Specification {
	out := make([]Specification, 0, len(specs))
	for _, s := range specs {
		key := strings.TrimSpace(s.Key)
		value := strings.TrimSpace(s.Value)
		if key == "" || value == "" {
			continue
		}
		out = append(out, Specification{Key: key, Value: value})
	}
	return out
}
