// Package env configures the uplink side of the daemon.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/robotalks/xmem.go/pkg/l1/comm"
	"github.com/robotalks/xmem.go/pkg/l1/comm/mqtt"
)

// Config provides options to forward completed messages off-board.
type Config struct {
	DeviceID string

	// MQTTBrokerURL specifies the MQTT broker to use, empty to disable.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
}

var defaultConfig = Config{}

func init() {
	if val := os.Getenv("XMEM_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("XMEM_DEVICE_ID"); val != "" {
		defaultConfig.DeviceID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID, defaults to a hash of the machine ID.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Device returns the configured device ID or derives one.
func (c *Config) Device() string {
	if c.DeviceID != "" {
		return c.DeviceID
	}
	return DeviceID()
}

// Validate checks the config.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.DeviceID, "/+#") {
		return fmt.Errorf("invalid device id %q", c.DeviceID)
	}
	return nil
}

// NewUplinks creates the configured uplinks. meta.Device is filled
// from the config.
func (c *Config) NewUplinks(meta mqtt.Meta) (*comm.UplinkMux, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mux := &comm.UplinkMux{}
	if c.MQTTBrokerURL != "" {
		meta.Device = c.Device()
		pub, err := mqtt.NewPublisher(c.MQTTBrokerURL, meta)
		if err != nil {
			return nil, fmt.Errorf("create MQTT publisher error: %v", err)
		}
		mux.Add(pub)
	}
	return mux, nil
}

// MustNewUplinks creates uplinks and fails on error.
func (c *Config) MustNewUplinks(meta mqtt.Meta) *comm.UplinkMux {
	mux, err := c.NewUplinks(meta)
	if err != nil {
		log.Fatalln(err)
	}
	return mux
}
