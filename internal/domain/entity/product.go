package entity

import "time"

// Product es una entrada del catálogo (café pergamino, plátano, aguacate...).
// El libro de producción solo la lee; no se modifica una vez referenciada por un lote.
type Product struct {
	ID        string
	Name      string
	Unit      string // unidad base: kg, und, bulto
	CreatedAt time.Time
}
