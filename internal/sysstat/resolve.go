package sysstat

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// deviceFields maps a category (or "category/subclass") to the member that
// names a device within its device list.
var deviceFields = map[string]string{
	"cpu-load":         "cpu",
	"cpu-load-all":     "cpu",
	"disk":             "disk-device",
	"network":          "iface",
	"interrupts":       "intr",
	"serial":           "line",
	"filesystems":      "filesystem",
	"power-management": "number",

	"power-management/usb-devices": "manufact",
}

// DeviceField returns the device-identifier member for a category and
// optional subclass.
func DeviceField(class, subclass string) (string, error) {
	if subclass != "" {
		if f, ok := deviceFields[class+"/"+subclass]; ok {
			return f, nil
		}
	}
	if f, ok := deviceFields[class]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDevice, class)
}

func (p Simple) collect(dp DataPoint, out []float64) ([]float64, int, error) {
	raw, ok := dp.Category(p.Class)
	if !ok {
		return out, 0, fmt.Errorf("%w: category %q", ErrMetricNotFound, p.Class)
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return out, 0, fmt.Errorf("%w: category %q is not an object", ErrShapeMismatch, p.Class)
	}
	v, err := numberMember(members, p.Metric)
	if err != nil {
		return out, 0, err
	}
	return append(out, v), 1, nil
}

func (p Device) collect(dp DataPoint, out []float64) ([]float64, int, error) {
	field, err := DeviceField(p.Class, "")
	if err != nil {
		return out, 0, err
	}
	raw, ok := dp.Category(p.Class)
	if !ok {
		return out, 0, fmt.Errorf("%w: category %q", ErrMetricNotFound, p.Class)
	}
	return collectDevices(raw, p.Class, field, p.Device, p.Metric, out)
}

func (p SubclassDevice) collect(dp DataPoint, out []float64) ([]float64, int, error) {
	field, err := DeviceField(p.Class, p.Subclass)
	if err != nil {
		return out, 0, err
	}
	raw, ok := dp.Category(p.Class)
	if !ok {
		return out, 0, fmt.Errorf("%w: category %q", ErrMetricNotFound, p.Class)
	}
	var subclasses map[string]json.RawMessage
	if err := json.Unmarshal(raw, &subclasses); err != nil {
		return out, 0, fmt.Errorf("%w: category %q is not an object", ErrShapeMismatch, p.Class)
	}
	sub, ok := subclasses[p.Subclass]
	if !ok {
		return out, 0, fmt.Errorf("%w: subclass %q of %q", ErrMetricNotFound, p.Subclass, p.Class)
	}
	return collectDevices(sub, p.Class+"/"+p.Subclass, field, p.Device, p.Metric, out)
}

// collectDevices appends metric from every entry of a device list whose
// identifier field equals device. It returns the number of matching entries.
func collectDevices(raw json.RawMessage, where, field, device, metric string, out []float64) ([]float64, int, error) {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return out, 0, fmt.Errorf("%w: %q is not a device list", ErrShapeMismatch, where)
	}
	matched := 0
	for _, entry := range entries {
		id, ok := entry[field]
		if !ok || deviceID(id) != device {
			continue
		}
		v, err := numberMember(entry, metric)
		if err != nil {
			return out, matched, fmt.Errorf("device %q: %w", device, err)
		}
		out = append(out, v)
		matched++
	}
	return out, matched, nil
}

func numberMember(members map[string]json.RawMessage, name string) (float64, error) {
	raw, ok := members[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMetricNotFound, name)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrShapeMismatch, name)
	}
	return v, nil
}

// deviceID renders an identifier member as text. sadf prints most
// identifiers as strings but some (fan or sensor numbers) as integers.
func deviceID(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}
