// Package version reads the release identity stamped into version.json at
// build time.
package version

import (
	"encoding/json"
	"log"
	"os"
)

const versionFile = "version.json"

type Info struct {
	Version string `json:"version"`
}

// Load reads the version file from the working directory. A missing or
// malformed file degrades to "dev" rather than failing startup.
func Load() Info {
	fallback := Info{Version: "dev"}

	data, err := os.ReadFile(versionFile)
	if err != nil {
		log.Printf("version: could not read %s: %v", versionFile, err)
		return fallback
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("version: could not parse %s: %v", versionFile, err)
		return fallback
	}
	return info
}
