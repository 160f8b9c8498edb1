package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID keys the hashed machine ID so the raw ID never leaves the host.
const AppID = "xmem"

// DeviceID derives a stable device identity from the machine ID,
// falling back to the host name.
func DeviceID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return AppID
}
