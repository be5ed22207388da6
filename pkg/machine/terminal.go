package machine

import (
	"bufio"
	"os"

	"github.com/kr/pty"
	"github.com/pkg/errors"
)

// Terminal backs one simulated terminal device (spec §3 line 7) with
// a real pty pair: writes to the device's transmit slot go to the pty
// master, and a reader goroutine turns bytes arriving from the slave
// side into simulated receive-interrupt completions.
type Terminal struct {
	Master *os.File
	Slave  *os.File
}

// OpenTerminal allocates a pty pair. It is not tied to a device index;
// callers name the device when they call Transmit or WatchReceive.
func OpenTerminal() (*Terminal, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, errors.Wrap(err, "machine: allocate terminal pty")
	}
	return &Terminal{Master: master, Slave: slave}, nil
}

// Close releases both ends of the pty pair.
func (t *Terminal) Close() error {
	err1 := t.Master.Close()
	err2 := t.Slave.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Transmit writes data to the pty master, simulating the device
// printing to the operator's terminal, and raises a transmit
// completion on m for the given device once the write lands.
func (m *Machine) Transmit(term *Terminal, device int, data []byte) error {
	if _, err := term.Master.Write(data); err != nil {
		return errors.Wrap(err, "machine: terminal transmit")
	}
	m.RaiseTerminalTransmitInterrupt(device, 0x5) // transmission-complete status
	return nil
}

// WatchReceive starts a goroutine that reads bytes from the pty
// master and raises a receive completion per byte on m for the given
// device, latching the byte as the status. It returns a stop function;
// callers (the live CLI driver) must call it on shutdown. The stop
// flag is checked between reads, so a goroutine blocked in a read
// exits only when that read returns.
func (m *Machine) WatchReceive(term *Terminal, device int) (stop func()) {
	done := make(chan struct{})
	go func() {
		r := bufio.NewReader(term.Master)
		for {
			select {
			case <-done:
				return
			default:
			}
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			m.RaiseDeviceInterrupt(7, device, uint32(b))
		}
	}()
	return func() { close(done) }
}
