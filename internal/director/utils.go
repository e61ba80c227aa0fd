package director

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/keyscroll/internal/system"
)

// ScenariosDir is where generated scroll scripts are stored
var ScenariosDir = filepath.Join("input", "scenarios")

// GenerateScenarioPath creates a timestamped scenario filename
func GenerateScenarioPath() string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(ScenariosDir, fmt.Sprintf("scenario_%s.yaml", timestamp))
}

// FindLatestScenario finds the most recent scenario file in ScenariosDir
func FindLatestScenario() (string, error) {
	path, err := system.FindLatest(ScenariosDir, system.ScenarioExtensions)
	if err != nil {
		return "", fmt.Errorf("no scenario files found in %s: %w", ScenariosDir, err)
	}
	return path, nil
}
