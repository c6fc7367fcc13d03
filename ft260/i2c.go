package ft260

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	ReportID_I2CStatus    = 0xC0 // Feature In
	ReportID_I2CInOut     = 0xD0 // 0xD0 - 0xDE, Input, Output
	ReportID_I2CInOut_Max = 0xDE

	// Max size of I2C write payload: (1 + Report ID - 0xD0) * 4 byte
	I2CMaxPayload = (1 + ReportID_I2CInOut_Max - ReportID_I2CInOut) * 4

	i2cStatusPolls = 20
)

const (
	I2C_StatusControllerBusy = byte(1 << iota)
	I2C_StatusError
	I2C_StatusNoSlaveAck
	I2C_StatusNoDataAck
	I2C_StatusArbitrationLost
	I2C_StatusControllerIdle
	I2C_StatusBusBusy
)

const (
	I2C_MasterNone      = 0x0
	I2C_MasterStart     = 0x2
	I2C_MasterRepStart  = 0x3
	I2C_MasterStop      = 0x4
	I2C_MasterStartStop = 0x6
)

// Result of ReportID_I2CStatus Feature In
type ReportI2cStatus struct {
	BusStatus byte   // Bitmask of I2C_Status...
	BusSpeed  uint16 // 2 byte: LSB+MSB
	// 1 reserved
}

func (r *ReportI2cStatus) ReportID() byte {
	return ReportID_I2CStatus
}

func (r *ReportI2cStatus) ReportLen() int {
	return 4
}

func (r *ReportI2cStatus) Unmarshall(b []byte) error {
	r.BusStatus = b[0]
	r.BusSpeed = uint16(b[1]) + uint16(b[2])<<8
	return nil
}

func (r *ReportI2cStatus) Err() error {
	switch {
	case r.BusStatus&I2C_StatusNoSlaveAck != 0:
		return fmt.Errorf("I2C: no slave acknowledge (status %08b)", r.BusStatus)
	case r.BusStatus&I2C_StatusNoDataAck != 0:
		return fmt.Errorf("I2C: no data acknowledge (status %08b)", r.BusStatus)
	case r.BusStatus&I2C_StatusArbitrationLost != 0:
		return fmt.Errorf("I2C: arbitration lost (status %08b)", r.BusStatus)
	case r.BusStatus&I2C_StatusError != 0:
		return fmt.Errorf("I2C: error (status %08b)", r.BusStatus)
	}
	return nil
}

// Data of ReportID_I2CInOut Interrupt Out
type OperationI2cWrite struct {
	SlaveAddr byte // 0..127
	Condition byte // I2C_Master...
	// 1 byte payload len
	Payload []byte
}

func (r *OperationI2cWrite) ReportID() byte {
	return ReportID_I2CInOut + byte(len(r.Payload)-1)/4
}

func (r *OperationI2cWrite) ReportLen() int {
	return len(r.Payload) + 3
}

func (r *OperationI2cWrite) Marshall(b []byte) error {
	if len(r.Payload) > I2CMaxPayload {
		return fmt.Errorf("Payload len %v exceeds maximum size of %v", len(r.Payload), I2CMaxPayload)
	}
	if r.SlaveAddr&0x80 != 0 {
		return fmt.Errorf("Invalid I2C slave address: %02x", r.SlaveAddr)
	}
	b[0] = r.SlaveAddr
	b[1] = r.Condition
	b[2] = byte(len(r.Payload))
	copy(b[3:], r.Payload)
	return nil
}

// i2cSplitTransaction splits data into chunks that fit into one report, with the I2C
// conditions that make them one transaction on the bus.
func i2cSplitTransaction(stop bool, data []byte) (payloads [][]byte, conditions []byte) {
	for len(data) > 0 {
		n := len(data)
		if n > I2CMaxPayload {
			n = I2CMaxPayload
		}
		payloads = append(payloads, data[:n])
		conditions = append(conditions, I2C_MasterNone)
		data = data[n:]
	}
	if len(payloads) == 0 {
		return
	}
	last := len(conditions) - 1
	if stop {
		conditions[last] = I2C_MasterStop
	}
	conditions[0] |= I2C_MasterStart
	return
}

func (f *Ft260) I2cWrite(addr byte, data ...byte) error {
	payloads, conditions := i2cSplitTransaction(true, data)
	for i, payload := range payloads {
		err := f.Write(&OperationI2cWrite{
			SlaveAddr: addr,
			Condition: conditions[i],
			Payload:   payload,
		})
		if err != nil {
			return err
		}
	}
	return f.waitI2c()
}

func (f *Ft260) waitI2c() error {
	var status ReportI2cStatus
	for i := 0; i < i2cStatusPolls; i++ {
		if err := f.Read(&status); err != nil {
			return err
		}
		if status.BusStatus&I2C_StatusControllerBusy == 0 {
			return status.Err()
		}
		time.Sleep(100 * time.Microsecond)
	}
	return fmt.Errorf("I2C controller still busy after %v status polls (status %08b)", i2cStatusPolls, status.BusStatus)
}

// DummyBus logs writes instead of sending them.
type DummyBus struct{}

func (DummyBus) I2cWrite(addr byte, data ...byte) error {
	log.Debugf("I2C write to %#02x: %02x", addr, data)
	return nil
}
