package model

import "gonum.org/v1/gonum/spatial/r2"

// Station is a fixed base owning a number of identical units.
type Station struct {
	ID       string
	Category Category
	Home     r2.Vec
	Units    int
	// Speed overrides the simulation default when positive.
	Speed float64
}
