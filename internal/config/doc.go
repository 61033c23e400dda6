// Package config loads dashboard configuration.
//
// Values are layered, later sources winning:
//
//  1. Default()
//  2. a YAML file: $DASHBOARD_CONFIG_FILE, else config.yaml or configs/config.yaml
//  3. environment variables prefixed with DASHBOARD_, for example
//
//	DASHBOARD_SERVER_PORT=9090
//	DASHBOARD_DATA_SOURCE=sheets
//	DASHBOARD_DATA_WORKBOOK_PATH=data/Cohort2_startups.xlsx
//	DASHBOARD_DATA_SPREADSHEET_ID=1AbC...
//	DASHBOARD_LOGGING_LEVEL=debug
//
// The merged result is validated with struct tags before use.
package config
