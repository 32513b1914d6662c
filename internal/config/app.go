package config

type AppConfig struct {
	Server ServerConfig
	Client ClientConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	clientCfg, err := LoadClient()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Client: clientCfg,
		Log:    logCfg,
	}, nil
}
