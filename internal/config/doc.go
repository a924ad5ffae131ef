// Package config loads the mortgage report configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML file: MPULSE_CONFIG_FILE, config.yaml or configs/config.yaml
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// Variables are named MPULSE_<SECTION>_<FIELD>:
//
//	MPULSE_LOGGING_LEVEL=debug
//	MPULSE_INGESTION_DEDUPLICATE=true
//	MPULSE_AGGREGATION_WEIGHTED_METRICS=ltv,gross_margin
//	MPULSE_CROSS_TAB_UNKNOWN_LTV_POLICY=exclude
//	MPULSE_TELEMETRY_METRICS_FILE=reports/run.prom
//
// # Validation
//
// Load validates every section with go-playground/validator struct tags and
// returns a CONFIG AppError naming each failing field.
//
// # Paths
//
// ResolvePaths turns the configured directories into absolute locations and
// names the report files written by a run.
package config
