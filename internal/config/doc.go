// Package config provides centralized configuration management for the GENBEA
// dashboard. It handles loading configuration from multiple sources, validation,
// and provides a type-safe API for accessing configuration values.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (GENBEA_CONFIG, config.yaml or configs/config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern GENBEA_<SECTION>_<FIELD>:
//
//	GENBEA_SERVER_PORT=8501
//	GENBEA_SECURITY_ACCESS_SECRET_HASH=$2a$10$...
//	GENBEA_PATHS_DATA_DIR=/srv/genbea/datos
//	GENBEA_CACHE_TTL=1h
//	GENBEA_DATASET_TRACKED_COLUMNS=PCRs,Proyecto
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
