package services

type SettingsStore interface {
	GetSettings() (*Settings, error)
	SaveSettings(s *Settings) error
}

// SettingsService manages the two operational toggles: which payment key
// the checkout uses, and whether the staff-only test product is listed.
type SettingsService struct {
	store SettingsStore
}

func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get() (*Settings, error) {
	cfg, err := s.store.GetSettings()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Settings{PaymentMode: PaymentModeTest}
	}
	if cfg.PaymentMode == "" {
		cfg.PaymentMode = PaymentModeTest
	}
	return cfg, nil
}

func (s *SettingsService) Update(paymentMode *string, testProductVisible *bool) (*Settings, error) {
	cfg, err := s.Get()
	if err != nil {
		return nil, err
	}
	if paymentMode != nil {
		switch *paymentMode {
		case PaymentModeLive, PaymentModeTest:
			cfg.PaymentMode = *paymentMode
		default:
			return nil, NewInvalidError("payment_mode must be live or test")
		}
	}
	if testProductVisible != nil {
		cfg.TestProductVisible = *testProductVisible
	}
	if err := s.store.SaveSettings(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
