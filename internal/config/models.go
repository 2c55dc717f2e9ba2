package config

import "time"

type Config struct {
	GracefulDuration time.Duration
	Metrics          Metrics
	Logs             Logs
	Daemon           Daemon
	VM               VM
	Paths            Paths
	Shell            Shell
	Sync             Sync
}

type Metrics struct {
	Port int
}

type Logs struct {
	Level   int
	Encoder EncoderType
}

type EncoderType string

const (
	EncoderTypeJson    EncoderType = "json"
	EncoderTypeConsole EncoderType = "console"
)

type Daemon struct {
	Socket string
}

// VM is fixed configuration for the one managed machine, not computed
// state. NICType names the emulated adapter hardware model; NATSubnet
// is the non-default range claimed by the VM's NAT layer.
type VM struct {
	Name      string
	MemoryMB  int
	CPUCount  int
	NICType   string
	NATSubnet string
}

// Paths are directories on the VM filesystem, consumed as opaque path
// strings.
type Paths struct {
	PersistDir string
	CPDir      string
	AssetsDir  string
}

type Shell struct {
	DemoteUser string
}

type Sync struct {
	SSHPort      int
	IdentityFile string
	RemoteUser   string
}
