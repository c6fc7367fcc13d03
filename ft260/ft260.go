package ft260

import (
	"errors"
	"fmt"

	"github.com/antongulenko/hid"
	log "github.com/sirupsen/logrus"
)

const (
	FTDIVendorId   = 0x0403
	FT260ProductId = 0x6030

	FT260_CHIP_CODE = 0x02600200
)

// I2cBus is implemented by the FT260 and by DummyBus.
type I2cBus interface {
	I2cWrite(addr byte, data ...byte) error
}

type Ft260 struct {
	*hid.Device
}

// OpenPath opens the FT260 with the given USB path, or the first one found if path is empty.
func OpenPath(path string) (*Ft260, error) {
	if !hid.Supported() {
		return nil, errors.New("The library github.com/antongulenko/hid is not supported on this platform")
	}
	devices := hid.Enumerate(FTDIVendorId, FT260ProductId)
	if len(devices) == 0 {
		return nil, fmt.Errorf("No USB HID device found with vendorID=%04x productID=%04x", FTDIVendorId, FT260ProductId)
	}
	info := devices[0]
	if path != "" {
		found := false
		for _, dev := range devices {
			if dev.Path == path {
				info, found = dev, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("No FT260 device found at USB path %v (%v device(s) connected)", path, len(devices))
		}
	} else if len(devices) > 1 {
		log.Warnf("Multiple devices connected with vendorID=%04x productID=%04x, using first", FTDIVendorId, FT260ProductId)
	}
	log.Printf("Opening USB HID device %v (USB %v): %v (%04x) from %v (%04x), Release %v",
		info.Path, info.Interface, info.Product, info.ProductID, info.Manufacturer, info.VendorID, info.Release)
	dev, err := info.Open()
	if err != nil {
		return nil, err
	}
	return &Ft260{Device: dev}, nil
}

type ReportIn interface {
	Unmarshall(data []byte) error
	ReportID() byte
	ReportLen() int
}

type ReportOut interface {
	Marshall(data []byte) error
	ReportID() byte
	ReportLen() int
}

func (f *Ft260) Write(report ReportOut) error {
	data := make([]byte, report.ReportLen()+1)
	data[0] = report.ReportID()
	if err := report.Marshall(data[1:]); err != nil {
		return err
	}
	n, err := f.Device.Write(data)
	if err == nil && n != len(data) {
		err = fmt.Errorf("ft260: wrong write len (%v instead of %v)", n, len(data))
	}
	return err
}

func (f *Ft260) Read(report ReportIn) error {
	data := make([]byte, report.ReportLen()+1)
	data[0] = report.ReportID()
	n, err := f.Device.Read(data)
	if err == nil && n != len(data) {
		err = fmt.Errorf("ft260: wrong read len (%v instead of %v)", n, len(data))
	}
	if err == nil && data[0] != report.ReportID() {
		return fmt.Errorf("Unexpected report id (expected %v, received %v)", report.ReportID(), data[0])
	}
	if err == nil {
		err = report.Unmarshall(data[1:])
	}
	return err
}

// Setup validates the chip and configures the system clock and the I2C bus frequency (kHz).
func (f *Ft260) Setup(i2cFreq uint16) error {
	var code ReportChipCode
	if err := f.Read(&code); err != nil {
		return err
	}
	if code.ChipCode != FT260_CHIP_CODE {
		return fmt.Errorf("Unexpected chip code %08x (expected %08x)", code.ChipCode, FT260_CHIP_CODE)
	}
	var err error
	f.writeSetting(&err, SetSystemSetting_Clock, Clock48MHz)
	f.writeSetting(&err, SetSystemSetting_I2CReset, nil) // Reset i2c bus in case it was disturbed
	f.writeSetting(&err, SetSystemSetting_I2CSetClock, i2cFreq)
	if err != nil {
		return err
	}

	var status ReportSystemStatus
	if err := f.Read(&status); err != nil {
		return err
	}
	if status.Suspended {
		return errors.New("FT260: device is suspended")
	}
	if !status.I2CEnable {
		return errors.New("FT260: I2C is not enabled on the device")
	}
	return nil
}

func (f *Ft260) writeSetting(outErr *error, request byte, val interface{}) {
	if *outErr == nil {
		*outErr = f.Write(&SetSystemStatus{
			Request: request,
			Value:   val,
		})
	}
}

func _readBool(b []byte, index int, e *error) bool {
	if *e == nil {
		val := b[index]
		if val == 0 {
			return false
		} else if val == 1 {
			return true
		} else {
			*e = fmt.Errorf("Expected 0 or 1 for byte at index %v, but got %02x", index, val)
		}
	}
	return false
}
