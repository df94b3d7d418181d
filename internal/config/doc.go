// Package config defines the settings shared by the allotment binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Values read from the file can be overridden by ALLOTMENT_* environment
// variables, which is how containers usually configure the server.
package config
