package entity

import "time"

// Crop representa un cultivo sembrado en un lote de terreno (parcela), origen de una cosecha.
type Crop struct {
	ID        string
	Name      string
	PlotID    string
	CreatedAt time.Time
}
