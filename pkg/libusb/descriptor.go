package libusb

import (
	"sort"

	"github.com/google/gousb"

	"github.com/gregLibert/ccid-probe/pkg/usb"
)

// deviceFromDesc copies a gousb descriptor into a usb.Device record.
// gousb keeps configurations and endpoints in maps; they are sorted here by
// configuration value and endpoint address so the records have a stable order.
func deviceFromDesc(desc *gousb.DeviceDesc) usb.Device {
	dev := usb.Device{
		Bus:       desc.Bus,
		Address:   desc.Address,
		VendorID:  uint16(desc.Vendor),
		ProductID: uint16(desc.Product),
		Class:     uint8(desc.Class),
	}

	cfgNums := make([]int, 0, len(desc.Configs))
	for num := range desc.Configs {
		cfgNums = append(cfgNums, num)
	}
	sort.Ints(cfgNums)

	for _, num := range cfgNums {
		dev.Configurations = append(dev.Configurations, configFromDesc(desc.Configs[num]))
	}
	return dev
}

func configFromDesc(desc gousb.ConfigDesc) usb.Configuration {
	cfg := usb.Configuration{Number: desc.Number}
	for _, intf := range desc.Interfaces {
		for _, alt := range intf.AltSettings {
			cfg.Interfaces = append(cfg.Interfaces, interfaceFromSetting(alt))
		}
	}
	return cfg
}

func interfaceFromSetting(s gousb.InterfaceSetting) usb.Interface {
	intf := usb.Interface{
		Number:    s.Number,
		Alternate: s.Alternate,
		Class:     uint8(s.Class),
		SubClass:  uint8(s.SubClass),
		Protocol:  uint8(s.Protocol),
	}

	addrs := make([]int, 0, len(s.Endpoints))
	for addr := range s.Endpoints {
		addrs = append(addrs, int(addr))
	}
	sort.Ints(addrs)

	for _, addr := range addrs {
		intf.Endpoints = append(intf.Endpoints, endpointFromDesc(s.Endpoints[gousb.EndpointAddress(addr)]))
	}
	return intf
}

func endpointFromDesc(desc gousb.EndpointDesc) usb.Endpoint {
	ep := usb.Endpoint{
		Address:       uint8(desc.Address),
		Direction:     usb.DirectionOut,
		MaxPacketSize: desc.MaxPacketSize,
	}
	if desc.Direction == gousb.EndpointDirectionIn {
		ep.Direction = usb.DirectionIn
	}

	switch desc.TransferType {
	case gousb.TransferTypeControl:
		ep.Type = usb.TransferControl
	case gousb.TransferTypeIsochronous:
		ep.Type = usb.TransferIsochronous
	case gousb.TransferTypeBulk:
		ep.Type = usb.TransferBulk
	case gousb.TransferTypeInterrupt:
		ep.Type = usb.TransferInterrupt
	}
	return ep
}
