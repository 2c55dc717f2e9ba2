package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const prefix = "DOCKYARD"

var conf Config

// Parse reads the configuration file given as parameter.
func Parse(confFile string) (*Config, error) {
	setDefault()

	viper.SetEnvPrefix(prefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if len(confFile) > 0 {
		viper.SetConfigFile(confFile)

		err := viper.ReadInConfig()
		if err != nil {
			return &conf, fmt.Errorf("failed to read config file %v: %w", confFile, err)
		}
	}

	err := viper.Unmarshal(&conf)
	if err != nil {
		return &conf, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &conf, nil
}

// Current returns the full parsed configuration.
func Current() *Config {
	return &conf
}

// VMConfig returns the managed VM configuration.
func VMConfig() VM {
	return conf.VM
}

// DaemonConfig returns the daemon socket configuration.
func DaemonConfig() Daemon {
	return conf.Daemon
}

// PathsConfig returns the remote VM paths.
func PathsConfig() Paths {
	return conf.Paths
}

func setDefault() {
	viper.SetDefault("logs.level", 4)
	viper.SetDefault("logs.encoder", EncoderTypeConsole)
	viper.SetDefault("gracefulDuration", "8s")
	viper.SetDefault("metrics.port", 7871)
	viper.SetDefault("daemon.socket", "/var/run/dockyard/dockyard.sock")
	viper.SetDefault("vm.name", "dockyard")
	viper.SetDefault("vm.memoryMB", 2048)
	viper.SetDefault("vm.cpuCount", -1)
	viper.SetDefault("vm.nicType", "Am79C973")
	viper.SetDefault("vm.natSubnet", "10.174.249/24")
	viper.SetDefault("paths.persistDir", "/persist")
	viper.SetDefault("paths.cpDir", "/cp")
	viper.SetDefault("paths.assetsDir", "/dockyard/assets")
	viper.SetDefault("sync.sshPort", 2022)
	viper.SetDefault("sync.remoteUser", "docker")
}
