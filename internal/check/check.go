// Package check provides pre-batch validation (credential file, working
// directories) and the --check diagnostics flow (key + credit balance).
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/backmassage/cloudlift/internal/api"
	"github.com/backmassage/cloudlift/internal/config"
	"github.com/backmassage/cloudlift/internal/display"
)

// Sentinel errors returned by Preflight. All are fatal: nothing is
// submitted until the configuration is sound.
var (
	ErrKeyFileNotFound = errors.New("API key file not found")
	ErrKeyFileEmpty    = errors.New("API key file is empty")
)

// lowCreditThreshold is the balance below which RunCheck warns.
const lowCreditThreshold = 100

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// LoadAPIKey reads and trims the single-line API key from path.
func LoadAPIKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
		}
		return "", err
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrKeyFileEmpty, path)
	}
	return key, nil
}

// Preflight is the pre-batch validation: load the API key into cfg and
// make sure the input and output directories exist (creating them if
// needed, matching first-run behavior). Returns a fatal error on failure.
func Preflight(cfg *config.Config) error {
	key, err := LoadAPIKey(cfg.KeyFile)
	if err != nil {
		return err
	}
	cfg.APIKey = key

	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create input directory %s: %w", cfg.InputDir, err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", cfg.OutputDir, err)
	}
	return nil
}

// RunCheck runs the interactive --check flow: verify the key file loads,
// then query the account credit balance. Returns false when any step
// fails so main can exit non-zero.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== CloudLift check ===")

	key, err := LoadAPIKey(cfg.KeyFile)
	if err != nil {
		log.Error("%v", err)
		return false
	}
	log.Success("API key loaded from %s", cfg.KeyFile)
	cfg.APIKey = key

	client := api.NewClient(cfg)
	bal, err := client.Credits(ctx)
	if err != nil {
		log.Error("%v", err)
		return false
	}

	log.Info("Available credits: %s", display.FormatThousands(bal.Available))
	log.Info("Reserved credits:  %s", display.FormatThousands(bal.Reserved))
	log.Info("Total credits:     %s", display.FormatThousands(bal.Total))

	if bal.Available < lowCreditThreshold {
		log.Warn("Low credit balance; top up before running a large batch")
	}
	return true
}
