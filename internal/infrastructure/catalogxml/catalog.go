// Package catalogxml lee el catálogo (productos, cultivos y clientes) exportado en XML
// por el sistema de gestión de la finca. Los exportes antiguos vienen en ISO-8859-1.
package catalogxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/agrostock-api/internal/domain/entity"
)

type document struct {
	Productos []struct {
		ID     string `xml:"id,attr"`
		Nombre string `xml:"nombre,attr"`
		Unidad string `xml:"unidad,attr"`
	} `xml:"productos>producto"`
	Cultivos []struct {
		ID      string `xml:"id,attr"`
		Nombre  string `xml:"nombre,attr"`
		Parcela string `xml:"parcela,attr"`
	} `xml:"cultivos>cultivo"`
	Clientes []struct {
		ID       string `xml:"id,attr"`
		Nombre   string `xml:"nombre,attr"`
		NIT      string `xml:"nit,attr"`
		Email    string `xml:"email,attr"`
		Telefono string `xml:"telefono,attr"`
	} `xml:"clientes>cliente"`
}

// Catalog catálogo leído, ordenado por id.
type Catalog struct {
	Products  []entity.Product
	Crops     []entity.Crop
	Customers []entity.Customer
}

// Load abre y decodifica el archivo.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode lee el XML. Registros sin id o nombre se descartan.
func Decode(r io.Reader) (*Catalog, error) {
	var doc document
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}

	c := &Catalog{}
	for _, p := range doc.Productos {
		id, name := strings.TrimSpace(p.ID), strings.TrimSpace(p.Nombre)
		if id == "" || name == "" {
			continue
		}
		unit := strings.TrimSpace(p.Unidad)
		if unit == "" {
			unit = "kg"
		}
		c.Products = append(c.Products, entity.Product{ID: id, Name: name, Unit: unit})
	}
	for _, cr := range doc.Cultivos {
		id, name := strings.TrimSpace(cr.ID), strings.TrimSpace(cr.Nombre)
		if id == "" || name == "" {
			continue
		}
		c.Crops = append(c.Crops, entity.Crop{ID: id, Name: name, PlotID: strings.TrimSpace(cr.Parcela)})
	}
	for _, cl := range doc.Clientes {
		id, name := strings.TrimSpace(cl.ID), strings.TrimSpace(cl.Nombre)
		if id == "" || name == "" {
			continue
		}
		c.Customers = append(c.Customers, entity.Customer{
			ID:    id,
			Name:  name,
			TaxID: strings.TrimSpace(cl.NIT),
			Email: strings.TrimSpace(cl.Email),
			Phone: strings.TrimSpace(cl.Telefono),
		})
	}

	sort.Slice(c.Products, func(i, j int) bool { return c.Products[i].ID < c.Products[j].ID })
	sort.Slice(c.Crops, func(i, j int) bool { return c.Crops[i].ID < c.Crops[j].ID })
	sort.Slice(c.Customers, func(i, j int) bool { return c.Customers[i].ID < c.Customers[j].ID })
	return c, nil
}

// WriteSQL escribe upserts idempotentes para las tablas products, crops y customers.
func (c *Catalog) WriteSQL(w io.Writer) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de producción (generado por seed_catalog)\n\n")
	for _, p := range c.Products {
		fmt.Fprintf(&b, "INSERT INTO products (id, name, unit) VALUES ('%s', '%s', '%s')\n", escapeSQL(p.ID), escapeSQL(p.Name), escapeSQL(p.Unit))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit;\n")
	}
	for _, cr := range c.Crops {
		fmt.Fprintf(&b, "INSERT INTO crops (id, name, plot_id) VALUES ('%s', '%s', '%s')\n", escapeSQL(cr.ID), escapeSQL(cr.Name), escapeSQL(cr.PlotID))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, plot_id = EXCLUDED.plot_id;\n")
	}
	for _, cl := range c.Customers {
		fmt.Fprintf(&b, "INSERT INTO customers (id, name, tax_id, email, phone) VALUES ('%s', '%s', '%s', '%s', '%s')\n",
			escapeSQL(cl.ID), escapeSQL(cl.Name), escapeSQL(cl.TaxID), escapeSQL(cl.Email), escapeSQL(cl.Phone))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, tax_id = EXCLUDED.tax_id, email = EXCLUDED.email, phone = EXCLUDED.phone, updated_at = now();\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
