package models

// Settings es la configuración del catálogo que edita el administrador
type Settings struct {
	Categories    []string                        `json:"categories" bson:"categories" yaml:"categories"`
	Brands        []string                        `json:"brands" bson:"brands" yaml:"brands"`
	SpecTemplates map[ProductType][]Specification `json:"spec_templates" bson:"spec_templates" yaml:"spec_templates"`
}

// SettingsUpdate contiene solo los campos a reemplazar
type SettingsUpdate struct {
	Categories    *[]string                       `json:"categories,omitempty"`
	Brands        *[]string                       `json:"brands,omitempty"`
	SpecTemplates map[ProductType][]Specification `json:"spec_templates,omitempty"`
}

// SpecTemplate devuelve una copia de la plantilla del tipo dado
func (s Settings) SpecTemplate(t ProductType) []Specification {
	tpl := s.SpecTemplates[t]
	out := make([]Specification, len(tpl))
	copy(out, tpl)
	return out
}

// Clone hace una copia profunda, para que nadie modifique la caché
func (s Settings) Clone() Settings {
	out := Settings{
		Categories:    append([]string(nil), s.Categories...),
		Brands:        append([]string(nil), s.Brands...),
		SpecTemplates: make(map[ProductType][]Specification, len(s.SpecTemplates)),
	}
	for t := range s.SpecTemplates {
		out.SpecTemplates[t] = s.SpecTemplate(t)
	}
	return out
}
