package alarm

import (
	"io"
	"sync"

	"go.bug.st/serial"

	"wakie/go-backend/pkg/log"
)

// PortOpener opens the buzzer port. Swapped out in tests.
type PortOpener func(name string, mode *serial.Mode) (io.WriteCloser, error)

func openSerialPort(name string, mode *serial.Mode) (io.WriteCloser, error) {
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// SerialBuzzer drives a buzzer or relay board that understands line
// commands on a serial port. The port is held only while the alarm sounds.
type SerialBuzzer struct {
	portName string
	mode     *serial.Mode
	onCmd    string
	offCmd   string
	open     PortOpener

	mu   sync.Mutex
	port io.WriteCloser
}

func NewSerialBuzzer(portName string, baudRate int, onCmd, offCmd string) *SerialBuzzer {
	return &SerialBuzzer{
		portName: portName,
		mode: &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		onCmd:  onCmd,
		offCmd: offCmd,
		open:   openSerialPort,
	}
}

func (s *SerialBuzzer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return
	}

	port, err := s.open(s.portName, s.mode)
	if err != nil {
		log.Error(log.Fields{"port": s.portName, "error": err.Error()}, "[alarm.SerialBuzzer] failed to open port")
		return
	}
	s.port = port

	if _, err := io.WriteString(port, s.onCmd); err != nil {
		log.Error(log.Fields{"port": s.portName, "error": err.Error()}, "[alarm.SerialBuzzer] failed to send on command")
		return
	}
	log.Info(log.Fields{"port": s.portName}, "[alarm.SerialBuzzer] alarm started")
}

func (s *SerialBuzzer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return
	}

	if _, err := io.WriteString(s.port, s.offCmd); err != nil {
		log.Error(log.Fields{"port": s.portName, "error": err.Error()}, "[alarm.SerialBuzzer] failed to send off command")
	}
	if err := s.port.Close(); err != nil {
		log.Warn(log.Fields{"port": s.portName, "error": err.Error()}, "[alarm.SerialBuzzer] failed to close port")
	}
	s.port = nil
	log.Info(log.Fields{"port": s.portName}, "[alarm.SerialBuzzer] alarm stopped")
}
