package network

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration is the flag-bound network surface for one syncer-agent
// process: where it listens for followers, and where (if anywhere) it
// dials a leader. There is deliberately no file or environment-backed
// persisted state here: every value is re-derived from flags on each
// process start.
type Configuration struct {
	bindAddress       string
	bindPort          int
	advertisedAddress string
	advertisedPort    int
	leaderAddress     string
	publishPeriod     time.Duration
}

func (c Configuration) BindAddress() string { return c.bindAddress }
func (c Configuration) BindPort() int        { return c.bindPort }
func (c Configuration) AdvertisedAddress() string {
	return c.advertisedAddress
}
func (c Configuration) AdvertisedPort() int { return c.advertisedPort }

// LeaderAddress is empty when this process is itself the leader.
func (c Configuration) LeaderAddress() string { return c.leaderAddress }

func (c Configuration) PublishPeriod() time.Duration { return c.publishPeriod }

func (c Configuration) BindHostPort() string {
	return fmt.Sprintf("%s:%d", c.bindAddress, c.bindPort)
}

func randomFreePort(host string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", fmt.Sprintf("%s:0", host))
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func localPrivateHost() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		panic(err)
	}
	for _, v := range ifaces {
		if v.Flags&net.FlagLoopback == net.FlagLoopback || v.Flags&net.FlagUp != net.FlagUp {
			continue
		}
		addresses, _ := v.Addrs()
		for _, addr := range addresses {
			ipnet, ok := addr.(*net.IPNet)
			if ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return "127.0.0.1"
}

// RegisterFlags binds the syncer-agent network flags onto cmd/config.
func RegisterFlags(cmd *cobra.Command, config *viper.Viper) {
	defaultAddr := localPrivateHost()

	cmd.Flags().String("bind-address", defaultAddr, "Listen for incoming sync connections on this address")
	config.BindPFlag("bind-address", cmd.Flags().Lookup("bind-address"))

	cmd.Flags().Int("bind-port", 0, "Listen for incoming sync connections on this port (0 picks a free port)")
	config.BindPFlag("bind-port", cmd.Flags().Lookup("bind-port"))

	cmd.Flags().String("advertised-address", "", "Advertise this address to peers instead of bind-address")
	config.BindPFlag("advertised-address", cmd.Flags().Lookup("advertised-address"))

	cmd.Flags().Int("advertised-port", 0, "Advertise this port to peers instead of bind-port")
	config.BindPFlag("advertised-port", cmd.Flags().Lookup("advertised-port"))

	cmd.Flags().String("leader-address", "", "Dial this address as leader instead of listening for followers")
	config.BindPFlag("leader-address", cmd.Flags().Lookup("leader-address"))

	cmd.Flags().Duration("publish-period", 0, "Default period for the periodic snapshot driver (0 uses the package default)")
	config.BindPFlag("publish-period", cmd.Flags().Lookup("publish-period"))
}

// ConfigurationFromFlags reads back the values bound by RegisterFlags.
func ConfigurationFromFlags(v *viper.Viper) Configuration {
	c := Configuration{
		bindAddress:       v.GetString("bind-address"),
		bindPort:          v.GetInt("bind-port"),
		advertisedAddress: v.GetString("advertised-address"),
		advertisedPort:    v.GetInt("advertised-port"),
		leaderAddress:     v.GetString("leader-address"),
		publishPeriod:     v.GetDuration("publish-period"),
	}
	if net.ParseIP(c.bindAddress) == nil {
		log.Fatalf("invalid bind address: %q", c.bindAddress)
	}
	if c.bindPort == 0 {
		port, err := randomFreePort(c.bindAddress)
		if err != nil {
			panic(err)
		}
		c.bindPort = port
	}
	if c.advertisedAddress == "" {
		c.advertisedAddress = c.bindAddress
	}
	if c.advertisedPort == 0 {
		c.advertisedPort = c.bindPort
	}
	return c
}
