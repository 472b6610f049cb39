// Package main provides the entry point for the skygrid CLI.
//
// skygrid builds sky grids for periodic-signal searches and steps through the
// full template bank of sky position, frequency and spin-downs.
//
// Usage:
//
//	skygrid grid --grid-type isotropic --region allsky
//	skygrid scan -c skygrid.yaml
//	skygrid cube --alpha 1.2 --delta 0.3 --freq 100 --points 5
//
// See --help for all available options.
package main

func main() {
	Execute()
}
