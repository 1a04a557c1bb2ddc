package core

// DeviceType indicates the kind of playback device.
type DeviceType string

const (
	DeviceTypeSpeaker  DeviceType = "speaker"
	DeviceTypeComputer DeviceType = "computer"
	DeviceTypePhone    DeviceType = "phone"
	DeviceTypeTV       DeviceType = "tv"
)

// Device represents a Spotify Connect playback device.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         DeviceType `json:"type"`
	IsActive     bool       `json:"is_active"`
	IsRestricted bool       `json:"is_restricted"`
}

// PickDevice returns the active device, or the first unrestricted one when
// none is active. It returns nil when nothing can be controlled.
func PickDevice(devices []Device) *Device {
	var fallback *Device
	for i := range devices {
		d := &devices[i]
		if d.IsRestricted {
			continue
		}
		if d.IsActive {
			return d
		}
		if fallback == nil {
			fallback = d
		}
	}
	return fallback
}
