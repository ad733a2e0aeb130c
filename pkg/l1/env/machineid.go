package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the ID identifying the machine, hashed with the
// application name so it's not leaked on the wire. The hostname is used
// when the platform provides no machine ID (e.g. minimal containers).
func MachineID() string {
	id, err := machineid.ProtectedID("encoder")
	if err == nil {
		return id[:16]
	}
	glog.V(1).Infof("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "unknown"
}
