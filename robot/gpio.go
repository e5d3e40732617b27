// Hardware drivers.
//
// GPIOCar drives an L298N dual H-bridge (two direction pins per motor) and
// an HC-SR04 ultrasonic ranger through periph.io. The wiring is differential:
// turns pivot in place by running the motor banks in opposite directions.

package robot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// echoTimeout bounds the wait for an echo pulse. A 400 cm round trip takes
// about 23 ms; anything slower is no echo.
const echoTimeout = 30 * time.Millisecond

// Pins names the GPIO lines the car is wired to, in gpioreg notation
// (e.g. "GPIO17").
type Pins struct {
	IN1, IN2 string // left motor bank
	IN3, IN4 string // right motor bank
	Trigger  string
	Echo     string
}

// GPIOCar is the physical motor and rangefinder.
type GPIOCar struct {
	mu      sync.Mutex
	in1     gpio.PinIO
	in2     gpio.PinIO
	in3     gpio.PinIO
	in4     gpio.PinIO
	trigger gpio.PinIO
	echo    gpio.PinIO
	clock   clockwork.Clock
}

var (
	_ Motor       = (*GPIOCar)(nil)
	_ Rangefinder = (*GPIOCar)(nil)
)

// NewGPIOCar initializes the host GPIO subsystem, claims the named pins,
// and leaves the motors released and the trigger line low.
func NewGPIOCar(pins Pins, clock clockwork.Clock) (*GPIOCar, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize gpio host: %w", err)
	}

	c := &GPIOCar{clock: clock}
	for _, p := range []struct {
		name string
		dst  *gpio.PinIO
	}{
		{pins.IN1, &c.in1},
		{pins.IN2, &c.in2},
		{pins.IN3, &c.in3},
		{pins.IN4, &c.in4},
		{pins.Trigger, &c.trigger},
		{pins.Echo, &c.echo},
	} {
		pin := gpioreg.ByName(p.name)
		if pin == nil {
			return nil, fmt.Errorf("gpio pin %q not found", p.name)
		}
		*p.dst = pin
	}

	if err := c.echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("failed to configure echo pin: %w", err)
	}
	if err := c.trigger.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure trigger pin: %w", err)
	}
	if err := c.release(); err != nil {
		return nil, err
	}
	return c, nil
}

// Drive energizes the motors in the given direction for the duration, then
// releases them. The motors are released even when the context is canceled
// mid-move.
func (c *GPIOCar) Drive(ctx context.Context, dir Direction, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dir == DirStop {
		return c.release()
	}

	if err := c.energize(dir); err != nil {
		c.release()
		return err
	}

	select {
	case <-ctx.Done():
		c.release()
		return ctx.Err()
	case <-c.clock.After(d):
	}
	return c.release()
}

// Sample fires one ultrasonic ping and returns the measured distance in
// whole cm. A missing echo reads as 0, which the sampler discards.
func (c *GPIOCar) Sample(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// 10 microsecond trigger pulse starts the measurement.
	if err := c.trigger.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("failed to raise trigger: %w", err)
	}
	c.clock.Sleep(10 * time.Microsecond)
	if err := c.trigger.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("failed to lower trigger: %w", err)
	}

	if !c.echo.WaitForEdge(echoTimeout) {
		return 0, nil
	}
	start := time.Now()
	if !c.echo.WaitForEdge(echoTimeout) {
		return 0, nil
	}

	// Sound covers ~58 microseconds per cm of round trip.
	return int(time.Since(start).Microseconds() / 58), nil
}

// energize sets the H-bridge inputs for a direction.
func (c *GPIOCar) energize(dir Direction) error {
	switch dir {
	case DirForward:
		return c.setBanks(gpio.High, gpio.Low, gpio.High, gpio.Low)
	case DirBackward:
		return c.setBanks(gpio.Low, gpio.High, gpio.Low, gpio.High)
	case DirLeft:
		return c.setBanks(gpio.Low, gpio.High, gpio.High, gpio.Low)
	case DirRight:
		return c.setBanks(gpio.High, gpio.Low, gpio.Low, gpio.High)
	default:
		return fmt.Errorf("cannot energize direction %q", dir)
	}
}

// release drops all H-bridge inputs, letting the motors coast.
func (c *GPIOCar) release() error {
	return c.setBanks(gpio.Low, gpio.Low, gpio.Low, gpio.Low)
}

func (c *GPIOCar) setBanks(a, b, x, y gpio.Level) error {
	for _, s := range []struct {
		pin   gpio.PinIO
		level gpio.Level
	}{
		{c.in1, a}, {c.in2, b}, {c.in3, x}, {c.in4, y},
	} {
		if err := s.pin.Out(s.level); err != nil {
			return fmt.Errorf("failed to set %s: %w", s.pin.Name(), err)
		}
	}
	return nil
}
