// Package config holds the scan configuration shared by the skygrid commands:
// grid type, sky region, metric settings, observation span and spin ranges.
// It is read from YAML, validated, and converted into core configuration.
package config
