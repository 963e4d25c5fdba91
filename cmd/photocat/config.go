package main

import (
	"github.com/spf13/viper"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/util"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (PHOTOCAT_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// applyLogLevel configures the logger from the global flags.
func applyLogLevel() {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
}

// openCatalog opens the catalog named by the --catalog flag.
func openCatalog() (*catalog.DB, error) {
	return catalog.Open(GetConfigString("catalog", "photocat.db"))
}
