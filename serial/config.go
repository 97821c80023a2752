package serial

// Config holds the configuration for a serial port. The line is always 8
// data bits, 1 stop bit and no parity; only the baud rate varies.
type Config struct {
	BaudRate int
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultBaudRate matches the reader firmware.
const DefaultBaudRate = 115200

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate: DefaultBaudRate,
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if !IsSupportedBaudRate(rate) {
			return ErrInvalidBaudRate
		}
		c.BaudRate = rate
		return nil
	}
}

// StandardBaudRates lists the rates accepted by WithBaudRate, in ascending order.
var StandardBaudRates = []int{
	50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800, 2400, 4800, 9600,
	19200, 38400, 57600, 115200, 230400, 460800, 500000, 576000, 921600,
	1000000, 1152000, 1500000, 2000000, 2500000, 3000000, 3500000, 4000000,
}

// IsSupportedBaudRate reports whether rate is one of StandardBaudRates.
func IsSupportedBaudRate(rate int) bool {
	for _, r := range StandardBaudRates {
		if r == rate {
			return true
		}
	}
	return false
}

func newConfig(opts []Option) (Config, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return Config{}, err
		}
	}
	return config, nil
}
