package config

type AppConfig struct {
	Store *StoreConfig
}

func New() *AppConfig {
	return &AppConfig{
		Store: NewStoreConfig(),
	}
}
