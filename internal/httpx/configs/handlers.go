// Package configs exposes the runtime settings that can change without a restart.
// Updates go through the config store, so validators and watchers apply exactly as
// for an Apollo change.
package configs

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"fontier-admin/internal/config"
	"fontier-admin/internal/httpx/kit"
)

// Settings is the editable view of the config.
type Settings struct {
	PageSize  int    `json:"page_size"`
	CacheTTL  string `json:"cache_ttl"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// UpdateSettingsRequest is a partial update; nil fields are left alone.
type UpdateSettingsRequest struct {
	PageSize  *int    `json:"page_size"`
	CacheTTL  *string `json:"cache_ttl"`
	LogLevel  *string `json:"log_level"`
	LogFormat *string `json:"log_format"`
}

func settingsOf(cfg *config.Config) Settings {
	return Settings{
		PageSize:  cfg.Paging.Size,
		CacheTTL:  cfg.Cache.TTL.String(),
		LogLevel:  cfg.Log.Level,
		LogFormat: cfg.Log.Format,
	}
}

// Mount registers the settings routes on r.
func Mount(r fiber.Router, store *config.Store) {
	r.Get("/admin/settings", GetSettingsHandler(store))
	r.Patch("/admin/settings", UpdateSettingsHandler(store))
}

// GetSettingsHandler returns the live settings.
func GetSettingsHandler(store *config.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return kit.OK(c, settingsOf(store.Get()))
	}
}

// UpdateSettingsHandler applies a partial update. Keys in the changed set use the
// Apollo names (paging.size, cache.ttl, log.level, log.format).
//
//	PATCH /api/v1/admin/settings
func UpdateSettingsHandler(store *config.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req UpdateSettingsRequest
		if err := kit.Bind(c, &req); err != nil {
			return err
		}
		changed, err := store.UpdateFunc(func(next *config.Config) (map[string]bool, error) {
			changed := map[string]bool{}
			if req.PageSize != nil {
				next.Paging.Size = *req.PageSize
				changed["paging.size"] = true
			}
			if req.CacheTTL != nil {
				d, err := time.ParseDuration(*req.CacheTTL)
				if err != nil || d < 0 {
					return nil, kit.BadRequest("invalid cache_ttl", *req.CacheTTL)
				}
				next.Cache.TTL = d
				changed["cache.ttl"] = true
			}
			if req.LogLevel != nil {
				next.Log.Level = *req.LogLevel
				changed["log.level"] = true
			}
			if req.LogFormat != nil {
				next.Log.Format = *req.LogFormat
				changed["log.format"] = true
			}
			return changed, nil
		})
		switch {
		case errors.Is(err, config.ErrRejected):
			return kit.NewAPIError(fiber.StatusUnprocessableEntity, "E_INVALID_PARAM", "settings rejected by validator", nil)
		case err != nil:
			return err
		case len(changed) == 0:
			return kit.BadRequest("nothing to update", nil)
		}
		return kit.OK(c, settingsOf(store.Get()))
	}
}
