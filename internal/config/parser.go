package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Load builds the effective configuration: embedded defaults, overlaid with
// the YAML file at path (optional, "" means defaults only), overlaid with
// environment variables. A .env file next to the config is loaded first,
// matching how the scheduler invokes the binary.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := loadDotenv(filepath.Dir(path)); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, briefingerrors.NewParseError(path, 0, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, briefingerrors.NewParseError(path, extractLine(err), err)
		}
	} else {
		if err := loadDotenv("."); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotenv(dir string) error {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	// Overload so .env wins over stale scheduler-supplied placeholders.
	return godotenv.Overload(envPath)
}

// applyEnv copies secrets and overrides from the environment. Secrets live
// only in the environment, never in the YAML file.
func applyEnv(cfg *Config) {
	cfg.Beehiiv.APIKey = os.Getenv("BEEHIIV_API_KEY")
	cfg.Beehiiv.Email = os.Getenv("BEEHIIV_EMAIL")
	cfg.Beehiiv.Password = os.Getenv("BEEHIIV_PASSWORD")

	if pub := os.Getenv("BEEHIIV_PUB_ID"); pub != "" {
		cfg.Beehiiv.PublicationID = pub
	}
	if operator := os.Getenv("NOTIFY_EMAIL"); operator != "" {
		cfg.Notify.Operator = operator
	}
	cfg.Notify.Password = os.Getenv("NOTIFY_PASSWORD")
	if cfg.Notify.Password == "" {
		cfg.Notify.Password = os.Getenv("GOLD_EMAIL_PASSWORD")
	}
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
