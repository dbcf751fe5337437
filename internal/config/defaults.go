package config

// DefaultExplorerURL is the default block explorer API endpoint.
const DefaultExplorerURL = "https://api.blockchain.info/haskoin-store/btc"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.satsend",
		Network: "mainnet",
		Explorer: ExplorerConfig{
			API:    DefaultExplorerURL,
			APIKey: "",
		},
		Fees: FeesConfig{
			DefaultLevel:         "regular",
			MinCustomSatsPerByte: 1,
			MaxCustomSatsPerByte: 1000,
		},
		Display: DisplayConfig{
			Currency: "USD",
			Verbose:  false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.satsend/satsend.log",
		},
	}
}
