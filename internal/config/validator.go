package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// Validate performs schema and cross-field validation on the configuration.
// Failures here are fatal before any stage runs.
func Validate(cfg *Config) error {
	if cfg == nil {
		return briefingerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]struct{}, len(cfg.Feeds.News))
	for i, feed := range append(append([]FeedSource(nil), cfg.Feeds.News...), cfg.Feeds.AfricaNews...) {
		if _, dup := seen[feed.URL]; dup {
			return briefingerrors.NewValidationError(
				fmt.Sprintf("feeds[%d].url", i), fmt.Sprintf("duplicate feed url %q", feed.URL), nil)
		}
		seen[feed.URL] = struct{}{}
	}

	if cfg.Notify.Operator != "" && cfg.Notify.SMTPHost == "" {
		return briefingerrors.NewValidationError("notify.smtp_host", "smtp host required when an operator address is set", nil)
	}

	if cfg.Beehiiv.APITierSupported && cfg.Beehiiv.APIKey == "" {
		return briefingerrors.NewValidationError("beehiiv.api_tier_supported", "BEEHIIV_API_KEY must be set when the API tier is enabled", nil)
	}

	return nil
}

func convertValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		return briefingerrors.NewValidationError(field, fmt.Sprintf("failed %q validation", fe.Tag()), err)
	}

	return briefingerrors.NewValidationError("config", err.Error(), err)
}
