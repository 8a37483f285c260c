// Package config loads SDK settings from files and the environment.
//
// Sources merge in rising precedence: a YAML file (./veldt.yml, then
// ./config/veldt.yml, then ~/.veldt/veldt.yml), a .env file, and VELDT_
// environment variables. Durations accept Go syntax ("45s") and byte sizes
// accept human readable values ("4MB").
//
//	settings, err := config.LoadSettings()
//	if err != nil {
//	    return err
//	}
//	client, err := lockbox.FromSettings(settings)
//
// Load fills caller-defined structs the same way for applications that
// extend Settings with their own sections.
package config
