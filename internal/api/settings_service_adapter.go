package api

import (
	"github.com/velora-app/velora/internal/services"
)

type settingsStoreAdapter struct {
	store Store
}

func newSettingsStoreAdapter(store Store) services.SettingsStore {
	return &settingsStoreAdapter{store: store}
}

func (a *settingsStoreAdapter) GetSettings() (*services.Settings, error) {
	cfg, err := a.store.GetSettings()
	if err != nil || cfg == nil {
		return nil, err
	}
	return &services.Settings{PaymentMode: cfg.PaymentMode, TestProductVisible: cfg.TestProductVisible}, nil
}

func (a *settingsStoreAdapter) SaveSettings(cfg *services.Settings) error {
	if cfg == nil {
		return services.NewInvalidError("settings required")
	}
	return a.store.SaveSettings(&Settings{PaymentMode: cfg.PaymentMode, TestProductVisible: cfg.TestProductVisible})
}

var _ services.SettingsStore = (*settingsStoreAdapter)(nil)
