// Package query filtra, busca, ordena y pagina una instantánea del catálogo.
// Son funciones puras: no hacen I/O ni modifican la entrada.
package query

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"door-catalog/internal/models"
	"door-catalog/internal/textutil"
)

// AllCategories es el valor centinela que desactiva el filtro de categoría
const AllCategories = "all"

type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortNameAsc  SortKey = "name-asc"
	SortNameDesc SortKey = "name-desc"
)

// Options es la combinación de filtros que usan los listados
type Options struct {
	Type     models.ProductType
	Category string
	Term     string
	// MatchAllFields busca también en descripción y categoría
	MatchAllFields bool
	Sort           SortKey
	Page           int
	PageSize       int
}

// Page es una página del resultado
type Page struct {
	Items      []models.Product `json:"items"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// Apply compone tipo -> categoría -> búsqueda -> orden -> paginación
func Apply(products []models.Product, opts Options) Page {
	out := FilterByType(products, opts.Type)
	out = FilterByCategory(out, opts.Category)
	if opts.MatchAllFields {
		out = SearchAll(out, opts.Term)
	} else {
		out = Search(out, opts.Term)
	}
	out = Sort(out, opts.Sort)
	return Paginate(out, opts.Page, opts.PageSize)
}

// FilterByType deja solo los productos del tipo dado; tipo vacío no filtra
func FilterByType(products []models.Product, t models.ProductType) []models.Product {
	if t == "" {
		return clone(products)
	}
	return filter(products, func(p models.Product) bool { return p.Type == t })
}

// FilterByCategory deja solo la categoría dada; "all" o vacío no filtra
func FilterByCategory(products []models.Product, category string) []models.Product {
	if category == "" || category == AllCategories {
		return clone(products)
	}
	return filter(products, func(p models.Product) bool { return p.Category == category })
}

// Search busca el término en el nombre, sin distinguir mayúsculas
func Search(products []models.Product, term string) []models.Product {
	term = textutil.Fold(term)
	if term == "" {
		return clone(products)
	}
	return filter(products, func(p models.Product) bool {
		return strings.Contains(textutil.Fold(p.Name), term)
	})
}

// SearchAll busca el término en nombre, descripción y categoría
func SearchAll(products []models.Product, term string) []models.Product {
	term = textutil.Fold(term)
	if term == "" {
		return clone(products)
	}
	return filter(products, func(p models.Product) bool {
		return strings.Contains(textutil.Fold(p.Name), term) ||
			strings.Contains(textutil.Fold(p.Description), term) ||
			strings.Contains(textutil.Fold(p.Category), term)
	})
}

// Sort ordena de forma estable. Una clave desconocida equivale a "newest".
func Sort(products []models.Product, key SortKey) []models.Product {
	out := clone(products)

	switch key {
	case SortNameAsc, SortNameDesc:
		coll := collate.New(language.Vietnamese)
		sign := 1
		if key == SortNameDesc {
			sign = -1
		}
		slices.SortStableFunc(out, func(a, b models.Product) int {
			// el cotejo ignora formas de normalización y runas invisibles
			if c := coll.CompareString(a.Name, b.Name); c != 0 {
				return sign * c
			}
			return sign * strings.Compare(a.Name, b.Name)
		})
	default:
		slices.SortStableFunc(out, func(a, b models.Product) int {
			switch {
			case a.CreatedAt > b.CreatedAt:
				return -1
			case a.CreatedAt < b.CreatedAt:
				return 1
			}
			return 0
		})
	}
	return out
}

// Paginate corta la página pedida (base 1). No ajusta páginas fuera de rango:
// devuelve una página vacía y el llamador decide.
func Paginate(products []models.Product, page, pageSize int) Page {
	result := Page{Items: []models.Product{}, Total: len(products), Page: page, PageSize: pageSize}
	if pageSize < 1 {
		return result
	}

	result.TotalPages = (len(products) + pageSize - 1) / pageSize
	if page < 1 || page > result.TotalPages {
		return result
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(products))
	result.Items = clone(products[start:end])
	return result
}

// ClampPage lleva page al rango [1, totalPages]
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// ParseSortKey acepta las claves conocidas y cae en "newest" para el resto
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNameAsc, SortNameDesc:
		return k
	default:
		return SortNewest
	}
}

func filter(products []models.Product, keep func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func clone(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}
