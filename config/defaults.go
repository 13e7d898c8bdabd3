package config

const (
	defaultOutputDir      = "~/.local/share/harnorm/output"
	defaultLedgerPath     = "~/.local/share/harnorm/ledger.db"
	defaultLogDir         = "~/.local/share/harnorm/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultOutputFormat   = "parquet"
	defaultAccelAmplitude = 50
	defaultGyroAmplitude  = 20
	defaultMinFreeMiB     = 64
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			LedgerPath: defaultLedgerPath,
			LogDir:     defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Output: Output{
			Format:     defaultOutputFormat,
			MinFreeMiB: defaultMinFreeMiB,
		},
		Quality: Quality{
			AccelAmplitude: defaultAccelAmplitude,
			GyroAmplitude:  defaultGyroAmplitude,
		},
		Sources: map[string]Source{},
	}
}
